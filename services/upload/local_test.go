package uploadsvc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
)

func TestLocalFileStoreSave(t *testing.T) {
	tmp := t.TempDir()
	store := NewLocalFileStore(filepath.Join(tmp, "uploads"))

	origNow := nowFunc
	nowFunc = func() time.Time { return time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC) }
	defer func() { nowFunc = origNow }()

	tests := []struct {
		name     string
		filename string
		wantPath string
		wantErr  error
	}{
		{name: "pdf accepted", filename: "report.pdf", wantPath: "uploads/assignments/20210314_150926_report.pdf"},
		{name: "relative path stripped", filename: "../../etc/passwd.txt", wantPath: "uploads/assignments/20210314_150926_passwd.txt"},
		{name: "windows path stripped", filename: `C:\docs\essay.docx`, wantPath: "uploads/assignments/20210314_150926_essay.docx"},
		{name: "odd chars flattened", filename: "my report (final).zip", wantPath: "uploads/assignments/20210314_150926_my_report__final_.zip"},
		{name: "exe rejected", filename: "virus.exe", wantErr: core.ErrFileTypeNotAllowed},
		{name: "no extension rejected", filename: "README", wantErr: core.ErrFileTypeNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Save("assignments", tt.filename, strings.NewReader("attached"))
			if err != tt.wantErr {
				t.Fatalf("Save() error = %v; wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantPath {
				t.Errorf("Save() = %q; want %q", got, tt.wantPath)
			}
			if tt.wantErr == nil {
				if _, err = os.Stat(filepath.Join(tmp, "uploads", "assignments", filepath.Base(got))); err != nil {
					t.Errorf("stored file missing: %v", err)
				}
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"  padded.txt ", "padded.txt"},
		{"..hidden.png", "hidden.png"},
		{"a/b/c.jpg", "c.jpg"},
		{`..\..\boot.zip`, "boot.zip"},
		{"über cool.doc", "ber_cool.doc"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
