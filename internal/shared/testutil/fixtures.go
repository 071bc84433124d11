package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// VoterHeader matches the state registration export layout
const VoterHeader = "VoterID,Residential County,First Name,Middle Name,Last Name,Suffix,Birth Date,Registration Date"

// VoteHeader matches the state voting history export layout
const VoteHeader = "VotingHistoryID,VoterID,Election Date,Vote Code"

// VoterRow builds a registration row with placeholder name fields
func VoterRow(id, county, birth, registered string) string {
	return strings.Join([]string{id, county, "First", "", "Last", "", birth, registered}, ",")
}

// VoteRow builds a voting history row
func VoteRow(seq, id, date string) string {
	return strings.Join([]string{seq, id, date, "EV"}, ",")
}

// WriteTable writes header and rows as a newline-terminated file under
// the test's temp dir and returns its path.
func WriteTable(t *testing.T, name, header string, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := header + "\n"
	for _, r := range rows {
		content += r + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
