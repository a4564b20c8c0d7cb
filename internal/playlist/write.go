// SPDX-License-Identifier: MIT
package playlist

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteM3U writes channels as an extended M3U playlist. The output parses
// back into the same records, except that commas in titles are written as
// semicolons since the parser takes the title after the last comma.
func WriteM3U(w io.Writer, channels []Channel, epgSpec string) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U")
	if epgSpec != "" {
		fmt.Fprintf(buf, ` x-tvg-url="%s"`, quoteSafe(epgSpec))
	}
	buf.WriteString("\n")

	for _, ch := range channels {
		fmt.Fprintf(buf,
			`#EXTINF:-1 tvg-id="%s" tvg-name="%s" tvg-logo="%s" group-title="%s"`,
			quoteSafe(ch.TvgID), quoteSafe(ch.TvgName), quoteSafe(ch.TvgLogo), quoteSafe(ch.Group),
		)
		if ch.TvgURL != "" {
			fmt.Fprintf(buf, ` tvg-url="%s"`, quoteSafe(ch.TvgURL))
		}
		if ch.Catchup != "" {
			fmt.Fprintf(buf, ` catchup="%s"`, quoteSafe(string(ch.Catchup)))
		}
		if ch.CatchupSource != "" {
			fmt.Fprintf(buf, ` catchup-source="%s"`, quoteSafe(ch.CatchupSource))
		}
		if ch.CatchupDays != "" {
			fmt.Fprintf(buf, ` catchup-days="%s"`, quoteSafe(ch.CatchupDays))
		}
		buf.WriteString("," + titleSafe(ch.Title) + "\n")

		if ch.UserAgent != "" {
			buf.WriteString("#EXTVLCOPT:http-user-agent=" + oneLine(ch.UserAgent) + "\n")
		}
		if ch.Referer != "" {
			buf.WriteString("#EXTVLCOPT:http-referrer=" + oneLine(ch.Referer) + "\n")
		}
		buf.WriteString(oneLine(ch.URL) + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}

func quoteSafe(s string) string {
	return strings.ReplaceAll(oneLine(s), `"`, "'")
}

func titleSafe(s string) string {
	return strings.ReplaceAll(oneLine(s), ",", ";")
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
