package generator

import (
	"bytes"
	"html/template"
	"time"

	"github.com/natefinch/atomic"
)

// Page is one published notebook.
type Page struct {
	Title    string
	Href     string
	Notebook string
	Error    string
}

var indexTmpl = template.Must(template.New("index").Parse(`
    <!DOCTYPE html>
    <html lang="en">
    <head>
       <meta charset="UTF-8"/>
       <title>NYC Collision Analysis Notebooks</title>
       <style>
          :root {
             --bg-color: #121212;
             --text-color: #e0e0e0;
             --card-bg: #1e1e1e;
             --card-border: #333;
             --failed-bg: #3d1a1a;
             --failed-border: #a52a2a;
          }

          body {
             font-family: Arial, sans-serif;
             max-width: 800px;
             margin: 0 auto;
             padding: 20px;
             background-color: var(--bg-color);
             color: var(--text-color);
          }
          .page {
             border: 1px solid var(--card-border);
             margin-bottom: 15px;
             padding: 10px;
             border-radius: 5px;
             background-color: var(--card-bg);
          }
          .page.failed {
             background-color: var(--failed-bg);
             border-color: var(--failed-border);
          }
          a { color: #add8e6; }
          h1, h2, h4 {
             color: var(--text-color);
          }
       </style>
    </head>
    <body>
       <h1>Analysis Notebooks</h1>
       <h4>Published: {{ .Published }} of {{ .Counter }}</h4>
       <h4>Last updated: {{ .LastUpdated }}</h4>

       {{ if eq (len .Pages) 0 }}
          <p>No notebooks have been published.</p>
       {{ else }}
          {{ range .Pages }}
             {{ if .Error }}
             <div class="page failed">
                <h2>{{ .Title }}</h2>
                <p>Conversion failed: {{ .Error }}</p>
                <small>{{ .Notebook }}</small>
             </div>
             {{ else }}
             <div class="page">
                <h2><a href="{{ .Href }}">{{ .Title }}</a></h2>
                <small>{{ .Notebook }}</small>
             </div>
             {{ end }}
          {{ end }}
       {{ end }}
    </body>
    </html>
    `))

// GenerateIndexHTML writes a page linking every converted notebook.
func GenerateIndexHTML(pages []Page, outputPath string) error {
	published := 0
	for _, p := range pages {
		if p.Error == "" {
			published++
		}
	}

	data := struct {
		Pages       []Page
		LastUpdated string
		Counter     int
		Published   int
	}{
		Pages:       pages,
		LastUpdated: time.Now().Format("Jan 2, 2006 at 3:04:05 PM"),
		Counter:     len(pages),
		Published:   published,
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return err
	}
	return atomic.WriteFile(outputPath, &buf)
}
