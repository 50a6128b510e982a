package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"repgen/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty debug report. When destination cannot be created
// report goes to temporary directory, see Report.Name.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

type entryKind int

const (
	kindPath entryKind = iota // referenced by path, read when archive is written
	kindData                  // kept in memory
	kindCopy                  // snapshot in scratch directory
)

func (k entryKind) String() string {
	switch k {
	case kindData:
		return "data"
	case kindCopy:
		return "copy"
	default:
		return "path"
	}
}

type entry struct {
	kind     entryKind
	original string
	// file or directory to read from, empty for kindData
	actual string
	stamp  time.Time
	data   []byte
}

// Report accumulates debug artifacts of a single run (configuration, input,
// content and layout dumps, resulting PDF, logs) and writes them as one zip
// archive on Close. Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	file    *os.File
	// holds StoreCopy snapshots, removed on Close
	scratch string
	copies  int
}

// Close writes the archive and removes snapshots. Nil report is valid and
// means no report was requested.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := multierr.Append(r.write(r.file), r.file.Close())
	if r.scratch != "" {
		err = multierr.Append(err, os.RemoveAll(r.scratch))
	}
	return err
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store records file or directory to be archived under name. Content is read
// on Close, so it may still change (log files).
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	if old, ok := r.entries[name]; ok && old.original != file {
		panic(fmt.Sprintf("report entry [%s] already refers to %s, cannot store %s", name, old.original, file))
	}
	actual := file
	if p, err := filepath.Abs(file); err == nil {
		actual = p
	}
	r.entries[name] = entry{kind: kindPath, original: file, actual: actual}
}

// StoreData records data to be archived under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, ok := r.entries[name]; ok {
		panic(fmt.Sprintf("report entry [%s] already exists", name))
	}
	r.entries[name] = entry{kind: kindData, data: data, stamp: time.Now()}
}

// StoreCopy snapshots file or directory as it is now. Storing the same name
// again keeps both versions, later one gets timestamp suffix.
func (r *Report) StoreCopy(name, src string) error {
	if r == nil {
		return nil
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return fmt.Errorf("unable to copy %s: not a regular file or directory", src)
	}

	if r.scratch == "" {
		if r.scratch, err = os.MkdirTemp("", misc.GetAppName()+"-r-"); err != nil {
			return err
		}
	}
	r.copies++
	dst := filepath.Join(r.scratch, strconv.Itoa(r.copies))

	e := entry{kind: kindCopy, original: src, stamp: time.Now()}
	if info.IsDir() {
		err = snapshotDir(abs, dst)
		e.actual = dst
	} else {
		e.actual = filepath.Join(dst, info.Name())
		err = snapshotFile(abs, e.actual, info.ModTime())
	}
	if err != nil {
		return err
	}

	if _, ok := r.entries[name]; ok {
		name = name + "-" + strconv.FormatInt(e.stamp.UnixNano(), 10)
	}
	r.entries[name] = e
	return nil
}

func snapshotFile(src, dst string, modTime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err = multierr.Append(err, out.Close()); err != nil {
		return err
	}
	return os.Chtimes(dst, modTime, modTime)
}

// snapshotDir copies regular files only, links and such are skipped.
func snapshotDir(root, dst string) error {
	return fs.WalkDir(os.DirFS(root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel := filepath.FromSlash(p)
		return snapshotFile(filepath.Join(root, rel), filepath.Join(dst, rel), info.ModTime())
	})
}

// write puts MANIFEST and all stored entries into the archive. Entries
// referring to files which no longer exist are listed in the manifest only.
func (r *Report) write(w io.Writer) error {
	arc := zip.NewWriter(w)

	names := slices.Sorted(maps.Keys(r.entries))
	if err := addFile(arc, "MANIFEST", time.Now(), bytes.NewReader(r.manifest(names))); err != nil {
		return multierr.Append(err, arc.Close())
	}

	for _, name := range names {
		if err := r.entries[name].archive(arc, name); err != nil {
			return multierr.Append(fmt.Errorf("unable to archive %s: %w", name, err), arc.Close())
		}
	}
	return arc.Close()
}

func (r *Report) manifest(names []string) []byte {
	buf := new(bytes.Buffer)
	now := time.Now()
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s", stamp.UTC().Format(time.RFC3339), e.kind, name)
		if e.kind != kindData {
			fmt.Fprintf(buf, "\t%s : %s", e.original, e.actual)
		} else {
			fmt.Fprintf(buf, "\t%d bytes", len(e.data))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (e entry) archive(arc *zip.Writer, name string) error {
	if e.kind == kindData {
		return addFile(arc, name, e.stamp, bytes.NewReader(e.data))
	}
	info, err := os.Stat(e.actual)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return addFromDisk(arc, name, e.actual, info.ModTime())
	}
	return fs.WalkDir(os.DirFS(e.actual), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return addFromDisk(arc, path.Join(name, p), filepath.Join(e.actual, filepath.FromSlash(p)), fi.ModTime())
	})
}

func addFile(arc *zip.Writer, name string, modified time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func addFromDisk(arc *zip.Writer, name, file string, modified time.Time) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return addFile(arc, name, modified, f)
}
