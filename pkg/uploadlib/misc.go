// Package uploadlib implements the session protocol of the forum's image
// upload: a stateful login Connection and a Batch that uploads a list of
// files through one session.
package uploadlib

import (
	"net/url"
	"strings"
	"time"

	"github.com/achterblog/fzpwuploader/pkg/multipart"
)

const (
	DEF_BASE_URL    = "http://freizeitparkweb.de/cgi-bin/dcf/dcboard.cgi"
	DEF_UPLOAD_HOST = "Freizeitparkweb.de"
	DEF_USER_AGENT  = "fzpwup/1.0"

	DEF_TIMEOUT         = 30 * time.Second
	DEF_TASK_TIMEOUT    = 2 * time.Minute
	DEF_CLEANUP_TIMEOUT = 30 * time.Second
)

// Charset of every text exchanged with the forum.
var Charset = multipart.ISO88591

// encodeForm builds an application/x-www-form-urlencoded body keeping the
// order of pairs. Values are converted to the forum charset before
// percent-encoding.
func encodeForm(pairs ...[2]string) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(string(Charset.Bytes(p[0]))))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(string(Charset.Bytes(p[1]))))
	}
	return sb.String()
}
