// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// StateFileName is the file in the bundle directory recording installed bundles.
const StateFileName = "bundles.yaml"

type installRecord struct {
	Name        string   `yaml:"name"`
	CreatedDirs []string `yaml:"created_dirs,omitempty"`
}

type stateFile struct {
	// Installed is keyed by archive file name.
	Installed map[string]installRecord `yaml:"installed"`
}

func loadState(fs billy.Filesystem, p string) (*stateFile, error) {
	st := &stateFile{Installed: make(map[string]installRecord)}
	data, err := util.ReadFile(fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("reading registry state %s: %w", p, err)
	}
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parsing registry state %s: %w", p, err)
	}
	if st.Installed == nil {
		st.Installed = make(map[string]installRecord)
	}
	return st, nil
}

// save writes the state to a temporary file and renames it into place.
func (s *stateFile) save(fs billy.Filesystem, p string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding registry state: %w", err)
	}

	tmp, err := fs.TempFile(filepath.Dir(p), "."+filepath.Base(p)+".tmp-")
	if err != nil {
		return fmt.Errorf("writing registry state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmp.Name())
		return fmt.Errorf("writing registry state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmp.Name())
		return fmt.Errorf("writing registry state: %w", err)
	}
	if err := fs.Rename(tmp.Name(), p); err != nil {
		_ = fs.Remove(tmp.Name())
		return fmt.Errorf("replacing registry state: %w", err)
	}
	return nil
}
