package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/torrent"
)

/* Struct */

// File serves torrents from a JSON listing of records. The listing is re-read
// on every poll. Control operations patch the affected records only; with
// Persist set they are written back to the file, otherwise they are kept in
// memory and reapplied after each re-read.
type File struct {
	Path    *string `validate:"required"`
	Persist bool

	// internal
	filters
	log        *logrus.Entry
	clientType string

	mu        sync.Mutex
	connected bool
	records   map[string]torrent.Record
	torrents  map[string]torrent.Torrent
	statuses  map[string]torrent.Status
	removed   *strset.Set
}

/* Initializer */

func NewFile(name string, exp *expression.Expressions) (Interface, error) {
	tc := File{
		filters:    newFilters(exp),
		log:        logger.GetLogger(name),
		clientType: "File",
		statuses:   make(map[string]torrent.Status),
		removed:    strset.New(),
	}

	// load config
	if err := config.K.Unmarshal(fmt.Sprintf("clients%s%s", config.Delimiter, name), &tc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// validate config
	if errs := config.ValidateStruct(&tc); errs != nil {
		return nil, fmt.Errorf("validate config: %v", errs)
	}

	return &tc, nil
}

// NewFileFromPath builds a file client without going through the config.
func NewFileFromPath(path string, persist bool, exp *expression.Expressions) *File {
	return &File{
		Path:       &path,
		Persist:    persist,
		filters:    newFilters(exp),
		log:        logger.GetLogger("file"),
		clientType: "File",
		statuses:   make(map[string]torrent.Status),
		removed:    strset.New(),
	}
}

/* Interface  */

func (c *File) Type() string {
	return c.clientType
}

func (c *File) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}

	c.connected = true
	c.log.Debugf("Loaded %d records from %s", len(c.records), *c.Path)
	return nil
}

func (c *File) GetTorrents(context.Context) (map[string]torrent.Torrent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, fmt.Errorf("get torrents: not connected")
	}

	if err := c.load(); err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}

	torrents := make(map[string]torrent.Torrent, len(c.torrents))
	for h, t := range c.torrents {
		torrents[h] = t.Clone()
	}

	return torrents, nil
}

func (c *File) PauseTorrents(_ context.Context, hashes []string) error {
	return c.update(hashes, torrent.StatusPaused)
}

func (c *File) ResumeTorrents(_ context.Context, hashes []string) error {
	return c.update(hashes, torrent.StatusDownloading)
}

func (c *File) RemoveTorrent(_ context.Context, hash string, deleteData bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[hash]; !ok {
		return false, fmt.Errorf("remove torrent: %v: not found", hash)
	}

	if deleteData {
		c.log.Warnf("File listings hold no data, removing %s from the listing only", hash)
	}

	delete(c.records, hash)
	delete(c.torrents, hash)
	delete(c.statuses, hash)
	if !c.Persist {
		c.removed.Add(hash)
	}

	if err := c.save(); err != nil {
		return false, err
	}

	return true, nil
}

/* Listing */

// DecodeListing strictly decodes a listing holding either a single record
// object or an array of records. Ids must be unique within the listing.
func DecodeListing(data []byte) ([]torrent.Record, error) {
	var records []torrent.Record

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		r, err := torrent.Decode(trimmed)
		if err != nil {
			return nil, err
		}
		records = []torrent.Record{r}
	} else {
		var err error
		if records, err = torrent.DecodeList(trimmed); err != nil {
			return nil, err
		}
	}

	seen := make(map[uint64]struct{}, len(records))
	for i, r := range records {
		if _, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("record %d: %w", i, &torrent.MalformedError{Field: "id", Reason: fmt.Sprintf("duplicate id %d", r.ID)})
		}
		seen[r.ID] = struct{}{}
	}

	return records, nil
}

// CheckListing decodes a listing and reports the display fields the size,
// rate and ETA grammar could not read. Only err makes the listing invalid.
func CheckListing(data []byte) (records []torrent.Record, unparsed []error, err error) {
	if records, err = DecodeListing(data); err != nil {
		return nil, nil, err
	}

	for _, r := range records {
		_, fields, err := format.ParsePartial(r)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		for _, f := range fields {
			unparsed = append(unparsed, fmt.Errorf("record %d: %w", r.ID, f))
		}
	}

	return records, unparsed, nil
}

// load re-reads the listing and reapplies in-memory control state. Callers
// hold c.mu.
func (c *File) load() error {
	data, err := os.ReadFile(*c.Path)
	if err != nil {
		return errors.Wrapf(err, "read listing %s", *c.Path)
	}

	list, err := DecodeListing(data)
	if err != nil {
		return errors.Wrapf(err, "decode listing %s", *c.Path)
	}

	records := make(map[string]torrent.Record, len(list))
	torrents := make(map[string]torrent.Torrent, len(list))
	for _, r := range list {
		h := strconv.FormatUint(r.ID, 10)
		if c.removed.Has(h) {
			continue
		}

		if status, ok := c.statuses[h]; ok {
			r = patchRecord(r, status)
		}

		t, unparsed, err := format.ParsePartial(r)
		if err != nil {
			return errors.Wrapf(err, "parse record %d", r.ID)
		}
		for _, u := range unparsed {
			c.log.Tracef("Record %d read as unknown: %v", r.ID, u)
		}

		t.Hash = h
		records[h] = r
		torrents[h] = t
	}

	c.records = records
	c.torrents = torrents
	return nil
}

func (c *File) update(hashes []string, status torrent.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range hashes {
		if _, ok := c.records[h]; !ok {
			return fmt.Errorf("update torrent: %v: not found", h)
		}
	}

	for _, h := range hashes {
		c.records[h] = patchRecord(c.records[h], status)
		c.torrents[h] = patchTorrent(c.torrents[h], status)
		if !c.Persist {
			c.statuses[h] = status
		}
	}

	return c.save()
}

// patchRecord changes the status of r and leaves its display text alone,
// except for the rates and ETA a paused torrent does not have.
func patchRecord(r torrent.Record, status torrent.Status) torrent.Record {
	r.Status = status
	if status == torrent.StatusPaused {
		r.DownSpeed = nil
		r.UpSpeed = nil
		r.ETA = format.UnknownETA
	}
	return r
}

func patchTorrent(t torrent.Torrent, status torrent.Status) torrent.Torrent {
	t.Status = status
	if status == torrent.StatusPaused {
		t.DownSpeed = nil
		t.UpSpeed = nil
		t.ETA = torrent.UnknownETA
	}
	return t
}

// save rewrites the listing sorted by id. Records are written as they were
// read or patched, never re-formatted. Callers hold c.mu.
func (c *File) save() error {
	if !c.Persist {
		return nil
	}

	records := make([]torrent.Record, 0, len(c.records))
	for _, r := range c.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode listing")
	}

	tmp := *c.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "write listing %s", tmp)
	}
	if err := os.Rename(tmp, *c.Path); err != nil {
		return errors.Wrapf(err, "replace listing %s", *c.Path)
	}

	return nil
}
