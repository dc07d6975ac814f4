package version

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/samber/lo"
)

// MinYtdlp is the oldest yt-dlp release known to handle the --referer and
// output template flags the ytdlp engine passes.
const MinYtdlp = "2023.03.04"

// Of runs bin --version and extracts the version number it prints.
func Of(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", bin, err)
	}

	v, ok := Extract(string(out))
	if !ok {
		return "", fmt.Errorf("%s --version printed no version", bin)
	}

	return v, nil
}

// Extract finds the first dotted number in output, such as the 120.0.6099.109
// in "Google Chrome 120.0.6099.109".
func Extract(output string) (string, bool) {
	return lo.Find(strings.Fields(output), func(field string) bool {
		if !strings.Contains(field, ".") {
			return false
		}
		_, err := parse(field)
		return err == nil
	})
}

// Outdated reports whether v is older than min. Unparsable versions are not outdated.
func Outdated(v, min string) bool {
	cmp, err := Compare(v, min)
	return err == nil && cmp < 0
}
