package prompt

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed prompts/*.md
var embedded embed.FS

// LoadDefaults parses the prompts compiled into the binary.
func LoadDefaults() ([]*Prompt, error) {
	sub, err := fs.Sub(embedded, "prompts")
	if err != nil {
		return nil, err
	}
	return loadFS(sub, func(name string) string { return "embedded:" + name })
}

// LoadFromDir parses every *.md prompt file directly inside dir.
func LoadFromDir(dir string) ([]*Prompt, error) {
	if info, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, &fs.PathError{Op: "load prompts", Path: dir, Err: fs.ErrInvalid}
	}
	return loadFS(os.DirFS(dir), func(name string) string { return filepath.Join(dir, name) })
}

func loadFS(fsys fs.FS, source func(name string) string) ([]*Prompt, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, err
	}
	prompts := make([]*Prompt, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		p, err := Load(source(name), data)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}
