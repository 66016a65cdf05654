/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template for the datprobe dashboard.
*/

package reporting

// dashboardTemplate is the main HTML template for the dashboard
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - datprobe</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }

        .header, .file {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }

        .header {
            text-align: center;
        }

        .header h1 {
            color: #4a5568;
            font-size: 2.5rem;
            margin-bottom: 10px;
        }

        .header p, .meta {
            color: #718096;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(120px, 1fr));
            gap: 12px;
            margin: 20px 0;
        }

        .stat {
            background: #f7fafc;
            border-radius: 12px;
            padding: 12px;
            text-align: center;
        }

        .stat .value {
            font-size: 1.6rem;
            font-weight: 700;
            color: #667eea;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            font-family: monospace;
        }

        th, td {
            text-align: left;
            padding: 4px 8px;
            border-bottom: 1px solid #e2e8f0;
        }

        .rejected {
            color: #f44336;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
        </div>
        {{range $r := .Reports}}
        <div class="file">
            <h2>{{$r.File.Name}}</h2>
            <p class="meta">run {{$r.RunID}} &middot; sha256 {{$r.File.SHA256}} &middot; {{if $r.Cached}}cached{{else}}scanned in {{$r.Duration}}{{end}}</p>
            <div class="stats-grid">
                <div class="stat"><div class="value">{{$r.File.Width}}</div>width</div>
                <div class="stat"><div class="value">{{$r.File.RowCount}}</div>rows</div>
                <div class="stat"><div class="value">{{$r.File.RowLength}}</div>row length</div>
                <div class="stat"><div class="value">{{$r.Summary.Strings}}</div>strings</div>
                <div class="stat"><div class="value">{{$r.Summary.Keys}}</div>keys</div>
                <div class="stat"><div class="value">{{$r.Summary.Foreign}}</div>foreign keys</div>
                <div class="stat"><div class="value">{{$r.Summary.Arrays}}</div>arrays</div>
            </div>
            <table>
                <tr><th>Offset</th><th>Max</th><th>Candidates</th></tr>
                {{range $i, $c := $r.Columns}}
                <tr><td>{{$c.Offset}}</td><td>{{hex $c.MaxValue}}</td><td>{{labels $r $i}}</td></tr>
                {{end}}
            </table>
            {{if $r.Validation}}
            <h3>Schema</h3>
            <table>
                <tr><th>Offset</th><th>Name</th><th>Type</th><th>Result</th></tr>
                {{range $r.Validation}}
                <tr{{if not .Valid}} class="rejected"{{end}}><td>{{.Header.Offset}}</td><td>{{.Header.Name}}</td><td>{{.Header.Type}}</td><td>{{if .Error}}{{.Error}}{{else if .Valid}}ok{{else}}rejected{{end}}</td></tr>
                {{end}}
            </table>
            {{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`
