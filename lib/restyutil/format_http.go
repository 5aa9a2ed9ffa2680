package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func formatHeaders(headers http.Header) string {
	var out []string
	for k, vals := range headers {
		for _, v := range vals {
			out = append(out, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(out, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response headers in ("Key: Value" format)
// 7: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders http.Header
	if res.Request.RawRequest != nil {
		requestHeaders = res.Request.RawRequest.Header
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		formatHeaders(requestHeaders),
		formatRequestBody(res.Request.RawRequest),

		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
