package state

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// stateColumns is the fixed header of the state CSV.
var stateColumns = []string{"lead_id", "status", "follow_up_count", "last_contact", "next_action"}

// CSVStore persists lead state in a single CSV file. Every Upsert reads the
// whole file, modifies the row set in memory, and rewrites the file, so the
// file is always a complete, consistent snapshot. Failures go to a JSONL
// sidecar next to the state file.
type CSVStore struct {
	path string
	now  func() time.Time
}

// NewCSV returns a CSVStore backed by the file at path. The file and its
// parent directory are created lazily on first write.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path, now: time.Now}
}

func (s *CSVStore) Migrate(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.rewrite(nil)
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) Load(ctx context.Context) ([]model.LeadState, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "state: open %s", s.path)
	}
	defer f.Close()

	states, err := readStates(f)
	if err != nil {
		return nil, eris.Wrapf(err, "state: read %s", s.path)
	}
	return states, nil
}

func (s *CSVStore) Upsert(ctx context.Context, leadID string, status model.LeadStatus, nextAction string) (model.LeadState, error) {
	states, err := s.Load(ctx)
	if err != nil {
		return model.LeadState{}, err
	}

	row := model.LeadState{
		LeadID:        leadID,
		Status:        status,
		FollowUpCount: 1,
		LastContact:   s.now().UTC().Truncate(time.Second),
		NextAction:    nextAction,
	}

	found := false
	for i, st := range states {
		if st.LeadID == leadID {
			row.FollowUpCount = st.FollowUpCount + 1
			states[i] = row
			found = true
			break
		}
	}
	if !found {
		states = append(states, row)
	}

	if err := s.rewrite(states); err != nil {
		return model.LeadState{}, err
	}
	return row, nil
}

func (s *CSVStore) RecordFailure(ctx context.Context, leadID string, procErr error) error {
	rec := model.FailureRecord{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Error:     procErr.Error(),
		CreatedAt: s.now().UTC(),
	}

	path := s.failuresPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "state: mkdir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "state: open %s", path)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "state: marshal failure")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrapf(err, "state: append failure for %s", leadID)
	}
	return nil
}

func (s *CSVStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	f, err := os.Open(s.failuresPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "state: open %s", s.failuresPath())
	}
	defer f.Close()

	var recs []model.FailureRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec model.FailureRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, eris.Wrap(err, "state: parse failure record")
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "state: scan failures")
	}

	// Newest first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

func (s *CSVStore) failuresPath() string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "_failures.jsonl"
}

func (s *CSVStore) rewrite(states []model.LeadState) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "state: mkdir %s", dir)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return eris.Wrapf(err, "state: create %s", s.path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stateColumns); err != nil {
		return eris.Wrap(err, "state: write header")
	}
	for _, st := range states {
		record := []string{
			st.LeadID,
			string(st.Status),
			strconv.Itoa(st.FollowUpCount),
			st.LastContact.Format(time.RFC3339),
			st.NextAction,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "state: write row %s", st.LeadID)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "state: flush")
}

func readStates(r io.Reader) ([]model.LeadState, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range stateColumns {
		if _, ok := col[want]; !ok {
			return nil, eris.Errorf("missing required column %q", want)
		}
	}

	var states []model.LeadState
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read row")
		}

		count, err := strconv.Atoi(record[col["follow_up_count"]])
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: follow_up_count", len(states)+2)
		}
		contact, err := time.Parse(time.RFC3339, record[col["last_contact"]])
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: last_contact", len(states)+2)
		}

		states = append(states, model.LeadState{
			LeadID:        record[col["lead_id"]],
			Status:        model.LeadStatus(record[col["status"]]),
			FollowUpCount: count,
			LastContact:   contact,
			NextAction:    record[col["next_action"]],
		})
	}

	return states, nil
}
