// Package dash serves the monitor dashboard.
package dash

import (
	"crypto/subtle"
	"fmt"
	"html/template"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/crypto/sha3"
)

// Report is one account's row on the status page.
type Report struct {
	Name         string
	Busy         bool
	Queue        []string
	LastCommand  string
	LastDispatch time.Time
}

type statusHandler struct {
	// user and pass are SHA3-224 digests of the credentials.
	user, pass [28]byte
	started    time.Time
	report     func() []Report
}

// New creates the dashboard handler. report is called per request for the
// current per-account state.
func New(username, password string, report func() []Report) http.Handler {
	return &statusHandler{
		user:    sha3.Sum224([]byte(username)),
		pass:    sha3.Sum224([]byte(password)),
		started: time.Now(),
		report:  report,
	}
}

type statusFormatter struct {
	Uptime     string
	Goroutines int
	HeapMB     uint64
	Accounts   []Report
}

const statusTemplSrc = `
<http>
<head>
<title>slashy</title>
<style>
	table {
		border-collapse: collapse;
	}

	td, th {
		border: 1px solid black;
		padding: 2px 8px;
		text-align: left;
	}

	.busy {
		font-weight: bold;
	}
</style>
</head>
<body>
<p>up {{.Uptime}} · {{.Goroutines}} goroutines · {{.HeapMB}} MiB heap</p>
<table>
	<tr><th>account</th><th>state</th><th>queue</th><th>last command</th><th>dispatched</th></tr>
{{range .Accounts}}	<tr>
		<td>{{.Name}}</td>
		<td{{if .Busy}} class="busy"{{end}}>{{if .Busy}}busy{{else}}idle{{end}}</td>
		<td>{{range .Queue}}{{.}} {{end}}</td>
		<td>{{.LastCommand}}</td>
		<td>{{if not .LastDispatch.IsZero}}{{.LastDispatch.Format "15:04:05"}}{{end}}</td>
	</tr>
{{end}}</table>
</body>
</http>
`

var statusTempl = template.Must(template.New("status").Parse(statusTemplSrc))

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="Monitor Area", charset="UTF-8"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case "GET":
		h.get(w)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *statusHandler) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	u := sha3.Sum224([]byte(user))
	p := sha3.Sum224([]byte(pass))
	// Compare both regardless so timing reveals neither.
	uok := subtle.ConstantTimeCompare(u[:], h.user[:])
	pok := subtle.ConstantTimeCompare(p[:], h.pass[:])
	return uok&pok == 1
}

func (h *statusHandler) get(w http.ResponseWriter) {
	w.Header().Add("Content-Type", "text/html; charset=utf-8")
	w.Header().Add("X-Content-Type-Options", "nosniff")
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	f := statusFormatter{
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     mem.HeapAlloc >> 20,
		Accounts:   h.report(),
	}
	if err := statusTempl.Execute(w, f); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "<html><body><p>writing body failed: %v</p></body></html>", template.HTMLEscapeString(err.Error()))
	}
}
