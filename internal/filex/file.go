package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"rsc.io/pdf"
)

// Info is what the upload preflight learns about a local file.
type Info struct {
	Path  string
	Name  string
	Size  int64
	Kind  Kind
	Pages int
}

// Inspect stats path and, for PDFs, counts pages. A PDF that cannot be parsed
// is still uploadable; Pages stays zero.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("%s is a directory", path)
	}

	info := Info{
		Path: path,
		Name: filepath.Base(path),
		Size: st.Size(),
		Kind: DetectKind(path),
	}
	if info.Kind == KindPDF {
		info.Pages = pageCount(path)
	}
	return info, nil
}

func pageCount(path string) (n int) {
	// rsc.io/pdf panics on some malformed cross-reference tables.
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	doc, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	return doc.NumPage()
}

// EnsureSubDir creates dirName under the working directory and returns its
// absolute path.
func EnsureSubDir(dirName string) (string, error) {
	if filepath.IsAbs(dirName) {
		if err := os.MkdirAll(dirName, 0o770); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dirName, err)
		}
		return dirName, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_.-]+`)

// SafeName replaces characters that are awkward in file names with '_'.
func SafeName(name string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "file"
	}
	return s
}
