package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/session"
	exportsvc "github.com/trezcool/censo/services/export"
)

var nowFunc = time.Now // mockable

// export writes the file next to its destination first, so a failed export
// never leaves a truncated file behind.
func (cli *commandLine) export(format, out string) error {
	enc, err := exportsvc.ForFormat(format)
	if err != nil {
		return err
	}

	loc := cli.conf.Census.Location()
	subs := cli.censusSvc.Submissions(context.Background())
	buf, err := exportsvc.Export(enc, subs, loc)
	if err != nil {
		return err
	}

	if out == "" {
		out = exportsvc.Filename(enc, nowFunc().In(loc))
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".censo-export-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := buf.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing export")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing export")
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return errors.Wrap(err, "moving export")
	}

	fmt.Fprintf(cli.out, "%d submissions exported to %s\n", len(subs), out)
	return nil
}

func (cli *commandLine) importFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading import file")
	}
	var subs []census.Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return errors.Wrap(err, "decoding import file")
	}
	if subs == nil {
		subs = []census.Submission{}
	}
	if err := cli.censusSvc.Import(context.Background(), subs); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d submissions imported\n", len(subs))
	return nil
}

func (cli *commandLine) stats() error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(cli.censusSvc.Summary(context.Background()))
}

func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := session.HashPassword(pwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, hash)
	return nil
}
