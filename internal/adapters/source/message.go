package source

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

// MinBodyLength is the shortest trimmed body worth analyzing
const MinBodyLength = 10

const (
	defaultSubject = "(No Subject)"
	maxPartDepth   = 10
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// ParseMessage reads an RFC 5322 message into a RawEmail. The second return is false
// when the message has too little text to analyze.
func ParseMessage(id string, r io.Reader) (*core.RawEmail, bool, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, false, fmt.Errorf("failed to extract text content: %w", err)
	}
	if len(strings.TrimSpace(body)) < MinBodyLength {
		return nil, false, nil
	}

	headers := make(map[string]string, len(msg.Header))
	for key, values := range msg.Header {
		if len(values) > 0 {
			headers[key] = decodeHeader(values[0])
		}
	}

	subject := headers["Subject"]
	if subject == "" {
		subject = defaultSubject
	}

	received, err := msg.Header.Date()
	if err != nil {
		received = time.Time{}
	}

	if id == "" {
		id = strings.Trim(headers["Message-Id"], "<>")
	}

	return &core.RawEmail{
		ID:         id,
		ThreadID:   threadID(headers, id),
		Subject:    subject,
		Sender:     headers["From"],
		ReceivedAt: received,
		Body:       body,
		RawHeaders: headers,
	}, true, nil
}

// threadID uses the root of the References chain so replies group with their thread
func threadID(headers map[string]string, fallback string) string {
	if refs := strings.Fields(headers["References"]); len(refs) > 0 {
		return strings.Trim(refs[0], "<>")
	}
	if parent := headers["In-Reply-To"]; parent != "" {
		return strings.Trim(strings.TrimSpace(parent), "<>")
	}
	return fallback
}

// extractTextFromMessage prefers text/plain, falls back to text/html with tags stripped,
// and returns the no-content sentinel otherwise
func extractTextFromMessage(msg *mail.Message) (string, error) {
	plain, htmlText, err := extractParts(
		msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"),
		msg.Body,
		0,
	)
	if err != nil {
		return "", err
	}

	switch {
	case strings.TrimSpace(plain) != "":
		return plain, nil
	case strings.TrimSpace(htmlText) != "":
		return HTMLToText(htmlText), nil
	default:
		return core.NoTextContent, nil
	}
}

// extractParts walks a MIME entity and returns the first text/plain and text/html bodies found
func extractParts(contentType, encoding string, body io.Reader, depth int) (plain, htmlText string, err error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable Content-Type, treat the body as plain text
		data, readErr := readDecoded(body, encoding, "")
		return data, "", readErr
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary, ok := params["boundary"]
		if !ok || depth >= maxPartDepth {
			return "", "", nil
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// Return what we have so far
				return plain, htmlText, nil
			}
			if isAttachment(part) {
				continue
			}
			p, h, err := extractParts(
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				part,
				depth+1,
			)
			if err != nil {
				continue // Skip this part if we can't read it
			}
			if plain == "" {
				plain = p
			}
			if htmlText == "" {
				htmlText = h
			}
		}
		return plain, htmlText, nil

	case mediaType == "text/plain":
		data, err := readDecoded(body, encoding, params["charset"])
		return data, "", err

	case mediaType == "text/html":
		data, err := readDecoded(body, encoding, params["charset"])
		return "", data, err

	default:
		return "", "", nil
	}
}

func isAttachment(part *multipart.Part) bool {
	disposition, _, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// readDecoded reads a body applying its transfer encoding and charset
func readDecoded(body io.Reader, encoding, charset string) (string, error) {
	var r io.Reader = body
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(body)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, body)
	}

	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if cr, err := charsetReader(charset, r); err == nil {
			r = cr
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// HTMLToText returns the visible text of an HTML document
func HTMLToText(doc string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(doc))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseBlankLines(sb.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				skip++
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4":
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skip > 0 {
					skip--
				}
			case "p", "div", "tr":
				sb.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
