package http

import (
	"html/template"
	"strings"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body>
{{template "content" .}}
</body>
</html>{{end}}
{{define "passwordForm"}}<form method="post">
<label for="{{.InputName}}">Password: </label>
<input type="password" name="{{.InputName}}" id="{{.InputName}}" required>
<button type="submit">log in</button>
</form>{{end}}`

var pageContents = map[string]string{
	"login": `{{define "content"}}<h2>🗝</h2>
<p>You're about to access directory '{{.Dir}}'</p>
{{template "passwordForm" .}}{{end}}`,

	"needDir": `{{define "content"}}<h2>Which directory do you want to download?</h2>
<p>Specify in the URL with <i>?{{.DirKey}}=yourDirectory</i></p>{{end}}`,

	"dirContents": `{{define "content"}}<h1>Contents of {{.Dir}}</h1>
<ul>
{{range .Files}}<li>{{.Name}} {{.Size}}</li>
{{end}}</ul>
<p><a href="{{.DownloadLink}}">Download files</a></p>{{end}}`,

	"wrongPassword": `{{define "content"}}<p>The directory password is incorrect. Try entering the password again in case this was an error.</p>
{{template "passwordForm" .}}{{end}}`,

	"cannotDownload": `{{define "content"}}<h2>Can't download files from directory '{{.Dir}}'</h2>
<p>Maybe the directory does not exist.</p>{{end}}`,

	"accessDenied": `{{define "content"}}<h1>Denied accessing {{.Dir}}</h1>
<p>Either the directory doesn't exist on the server or the provided password is incorrect</p>{{end}}`,

	"noPasswordInBody": `{{define "content"}}<h2>Something went wrong</h2>
<p>Couldn't get password from body. It should be something like '{{.InputName}}=directoryPassword'</p>{{end}}`,
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	base := template.Must(template.New("layout").Parse(layout))
	parsed := make(map[string]*template.Template, len(pageContents))
	for name, content := range pageContents {
		parsed[name] = template.Must(template.Must(base.Clone()).Parse(content))
	}
	return parsed
}

type fileRow struct {
	Name string
	Size string
}

type pageData struct {
	Title        string
	Dir          string
	DirKey       string
	InputName    string
	Files        []fileRow
	DownloadLink string
}

func renderPage(name string, data pageData) (string, error) {
	var b strings.Builder
	if err := pages[name].ExecuteTemplate(&b, "layout", data); err != nil {
		return "", err
	}
	return b.String(), nil
}
