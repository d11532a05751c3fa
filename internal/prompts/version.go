package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// InitialVersion is the version assigned to new prompts.
const InitialVersion = "1.0.0"

const recoveryVersion = "1.0.1"

// NextVersion bumps a MAJOR.MINOR.PATCH version. A major bump yields
// (M+1).0.0; otherwise the patch component increments. Missing components
// count as zero. Unparseable input yields 1.0.1.
func NextVersion(current string, major bool) string {
	parts := strings.Split(current, ".")

	nums := [3]int{}
	for i := range min(len(parts), 3) {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return recoveryVersion
		}
		nums[i] = n
	}

	if major {
		return fmt.Sprintf("%d.0.0", nums[0]+1)
	}
	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2]+1)
}

// ContentHash returns the hex SHA-256 digest used for deduplication.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Render returns the prompt content as plain text, or as Markdown with
// a title heading and description when withMetadata is set.
func Render(p *Prompt, withMetadata bool) string {
	if !withMetadata {
		return p.Content
	}

	var lines []string
	if p.Title != "" {
		lines = append(lines, "# "+p.Title)
	}
	if p.Description != nil && *p.Description != "" {
		lines = append(lines, "", *p.Description)
	}
	lines = append(lines, "", p.Content)
	return strings.Join(lines, "\n")
}
