// Package result contains the small set of HTTP response helpers used by
// the sequitur debug server.
package result

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ctxKey is an unexported type so values stashed under it can never collide
// with a context key from another package.
type ctxKey int

// RequestIDKey is the context key middle.WithRequestID stores its minted
// per-request uuid under. It lives here rather than in server/middle
// because middle already imports this package for Result; a key defined
// over there and read back here would make the import cycle back.
const RequestIDKey ctxKey = 0

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is a deferred HTTP response: a status code, a body (JSON unless
// IsJSON is false), and whatever headers a builder function attached to it.
// Handlers build one, then call Log and WriteResponse on it.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string

	respJSONBytes []byte
}

// OK returns a Result containing an HTTP-200 wrapping respObj.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return response(http.StatusOK, respObj, fmtMsg("OK", internalMsg))
}

// PlainText returns a Result containing an HTTP-200 with a text/plain body.
func PlainText(body string) Result {
	return Result{IsJSON: false, Status: http.StatusOK, InternalMsg: "OK", resp: body}
}

// BadRequest returns a Result containing an HTTP-400.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, fmtMsg("bad request", internalMsg))
}

// Unauthorized returns a Result containing an HTTP-401 with the appropriate
// WWW-Authenticate header.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return Err(http.StatusUnauthorized, userMsg, fmtMsg("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="sequitur debug server"`)
}

// InternalServerError returns a Result containing an HTTP-500. The detailed
// message is logged server-side but never shown to the caller.
func InternalServerError(internalMsg ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", fmtMsg("internal server error", internalMsg))
}

func fmtMsg(def string, args []interface{}) string {
	if len(args) == 0 {
		return def
	}
	format := args[0].(string)
	return fmt.Sprintf(format, args[1:]...)
}

func response(status int, respObj interface{}, internalMsg string) Result {
	return Result{IsJSON: true, Status: status, InternalMsg: internalMsg, resp: respObj}
}

// Err builds an error Result with the given status, user-facing message,
// and internal log message.
func Err(status int, userMsg, internalMsg string) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// WithHeader returns a copy of r with name/val added as a response header.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return cp
}

func (r *Result) prepare() error {
	if r.respJSONBytes != nil || !r.IsJSON || r.Status == http.StatusNoContent {
		return nil
	}
	b, err := json.Marshal(r.resp)
	if err != nil {
		return err
	}
	r.respJSONBytes = b
	return nil
}

// WriteResponse writes r to w. It does not log; Log does that.
func (r Result) WriteResponse(w http.ResponseWriter, req *http.Request) {
	if r.Status == 0 {
		panic("result not populated")
	}
	if err := r.prepare(); err != nil {
		r = InternalServerError("could not marshal response: %s", err.Error())
		_ = r.prepare()
	}

	for i := range r.hdrs {
		w.Header().Set(r.hdrs[i][0], r.hdrs[i][1])
	}

	var body []byte
	if r.IsJSON {
		w.Header().Set("Content-Type", "application/json")
		body = r.respJSONBytes
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		body = []byte(fmt.Sprintf("%v", r.resp))
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.Status)
	if r.Status != http.StatusNoContent {
		_, _ = w.Write(body)
	}
}

// Log writes r's internal message to the standard logger, tagged with the
// request id (if middle.WithRequestID minted one), method, and path,
// mirroring the teacher's inline log.Printf("ERROR: ...", ...) idiom in
// server/server.go.
func (r Result) Log(req *http.Request) {
	tag := "INFO"
	if r.IsErr {
		tag = "ERROR"
	}
	reqID, _ := req.Context().Value(RequestIDKey).(string)
	if reqID == "" {
		reqID = "-"
	}
	log.Printf("%s: [%s] %s %s: HTTP-%d: %s", tag, reqID, req.Method, req.URL.Path, r.Status, r.InternalMsg)
}
