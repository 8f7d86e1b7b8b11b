package httpsig

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// signatureParams holds the parameters that appear in the @signature-params
// component of the signature base.
type signatureParams struct {
	components []string
	created    time.Time
	expires    time.Time
	nonce      string
	alg        Algorithm
	keyID      string
	tag        string
}

// buildSignatureBase constructs the signature base string per RFC 9421
// Section 2.5. Each covered component produces a line
// "<component-id>": <value>\n and the final line is
// "@signature-params": <params>.
func buildSignatureBase(r *http.Request, params signatureParams) ([]byte, string, error) {
	var base strings.Builder

	for _, id := range params.components {
		val, err := componentValue(id, r)
		if err != nil {
			return nil, "", err
		}

		fmt.Fprintf(&base, "%q: %s\n", id, val)
	}

	sigParamsStr := serializeSignatureParams(params)
	fmt.Fprintf(&base, "\"@signature-params\": %s", sigParamsStr)

	return []byte(base.String()), sigParamsStr, nil
}

// serializeSignatureParams produces the inner-list representation of the
// signature parameters per RFC 9421 Section 2.3 and RFC 8941 Section 3.1.1.
//
// Format: (<component-ids>);<key>=<value>;...
func serializeSignatureParams(params signatureParams) string {
	var b strings.Builder

	// Inner list of component identifiers.
	b.WriteByte('(')
	for i, id := range params.components {
		if i > 0 {
			b.WriteByte(' ')
		}

		b.WriteString(strconv.Quote(id))
	}
	b.WriteByte(')')

	// Parameters.
	if !params.created.IsZero() {
		fmt.Fprintf(&b, ";created=%d", params.created.Unix())
	}

	if !params.expires.IsZero() {
		fmt.Fprintf(&b, ";expires=%d", params.expires.Unix())
	}

	if params.nonce != "" {
		b.WriteString(";nonce=")
		b.WriteString(quoteRFC8941(params.nonce))
	}

	b.WriteString(";alg=")
	b.WriteString(quoteRFC8941(params.alg.String()))
	b.WriteString(";keyid=")
	b.WriteString(quoteRFC8941(params.keyID))

	if params.tag != "" {
		b.WriteString(";tag=")
		b.WriteString(quoteRFC8941(params.tag))
	}

	return b.String()
}

// quoteRFC8941 produces an RFC 8941 quoted-string. Only backslash and
// double-quote are escaped (Section 3.3.3); no other escape sequences
// are permitted.
func quoteRFC8941(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' || ch == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(ch)
	}

	b.WriteByte('"')

	return b.String()
}
