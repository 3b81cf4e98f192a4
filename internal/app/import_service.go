package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
)

// Custom application-level errors for history import/export
var ErrInvalidImportJSON = fmt.Errorf("import payload is not valid JSON")
var ErrUnsupportedImportJSON = fmt.Errorf("unsupported import JSON structure")
var ErrNoValidRecords = fmt.Errorf("no valid periods or events found to import")
var ErrImportFileUnreadable = fmt.Errorf("import file not found or unreadable")
var ErrMissingExportFile = fmt.Errorf("an export file path is required")

// ImportPeriod is one period item of an import payload.
type ImportPeriod struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// ImportEvent is one daily-log item of an import payload.
type ImportEvent struct {
	Day          string   `json:"day"`
	Menstruating bool     `json:"menstruating"`
	Flow         string   `json:"flow"`
	Symptoms     []string `json:"symptoms"`
}

// ImportRequest is the import_history payload. JSON carries an inline
// document, File points at one on disk; either is merged with the
// structured lists. When both are set the file wins, like the original
// service contract.
type ImportRequest struct {
	JSON    string         `json:"json,omitempty"`
	File    string         `json:"file,omitempty"`
	Periods []ImportPeriod `json:"periods,omitempty"`
	Events  []ImportEvent  `json:"events,omitempty"`
	Mode    string         `json:"mode,omitempty"`
}

// ImportSummary reports what a finished import contained.
type ImportSummary struct {
	Periods int                `json:"periods"`
	Events  int                `json:"events"`
	Mode    history.ImportMode `json:"mode"`
}

// HistoryDocument is the native history JSON shape, exported as-is and
// accepted back on import.
type HistoryDocument struct {
	Periods []PeriodRecord `json:"periods"`
	Events  []EventRecord  `json:"events"`
}

// PeriodRecord mirrors a stored period; End is null while open.
type PeriodRecord struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// EventRecord mirrors a stored daily log.
type EventRecord struct {
	Day          string   `json:"day"`
	Menstruating bool     `json:"menstruating"`
	Flow         string   `json:"flow"`
	Symptoms     []string `json:"symptoms"`
	CreatedAt    string   `json:"created_at"`
}

// thirdPartyItem is one entry of the foreign tracker export format: a list
// (or {"data": [...]}) of {type, date, value: {option}} objects.
type thirdPartyItem struct {
	Type  string `json:"type"`
	Date  string `json:"date"`
	Value struct {
		Option string `json:"option"`
	} `json:"value"`
}

// ImportService ingests history in bulk and writes the native export. File
// paths are resolved against the data directory unless absolute.
type ImportService struct {
	historyRepo history.Repository
	refresher   Refresher
	logger      *logrus.Entry
	dataDir     string
}

func NewImportService(historyRepo history.Repository, refresher Refresher, logger *logrus.Entry, dataDir string) *ImportService {
	return &ImportService{
		historyRepo: historyRepo,
		refresher:   refresher,
		logger:      logger,
		dataDir:     dataDir,
	}
}

// Import merges or replaces history from the request's combined sources.
// Invalid entries are skipped with a log line; an import that yields no
// valid records at all fails with ErrNoValidRecords.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportSummary, error) {
	mode, err := history.ParseImportMode(req.Mode)
	if err != nil {
		return nil, err
	}

	rawPeriods := append([]ImportPeriod{}, req.Periods...)
	rawEvents := append([]ImportEvent{}, req.Events...)

	var payload []byte
	if req.File != "" {
		payload, err = os.ReadFile(s.resolvePath(req.File))
		if err != nil {
			s.logger.WithError(err).WithField("file", req.File).Error("Failed to read import file")
			return nil, fmt.Errorf("%w: %s", ErrImportFileUnreadable, req.File)
		}
	} else if req.JSON != "" {
		payload = []byte(req.JSON)
	}
	if len(payload) > 0 {
		docPeriods, docEvents, err := s.parsePayload(payload)
		if err != nil {
			return nil, err
		}
		rawPeriods = append(rawPeriods, docPeriods...)
		rawEvents = append(rawEvents, docEvents...)
	}

	periods, logs := s.normalize(rawPeriods, rawEvents)
	if len(periods) == 0 && len(logs) == 0 {
		return nil, ErrNoValidRecords
	}

	if err := s.historyRepo.ImportHistory(ctx, periods, logs, mode); err != nil {
		return nil, fmt.Errorf("import failed during storage update: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"periods": len(periods),
		"events":  len(logs),
		"mode":    mode,
	}).Info("History imported")

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("Refresh after import failed")
	}
	return &ImportSummary{Periods: len(periods), Events: len(logs), Mode: mode}, nil
}

// parsePayload understands the native {periods, events} document and the
// third-party list export; everything else is unsupported.
func (s *ImportService) parsePayload(raw []byte) ([]ImportPeriod, []ImportEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	if trimmed[0] == '[' {
		var items []thirdPartyItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImportJSON, err)
		}
		return nil, s.thirdPartyEvents(items), nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImportJSON, err)
	}

	_, hasPeriods := probe["periods"]
	_, hasEvents := probe["events"]
	if hasPeriods || hasEvents {
		var doc struct {
			Periods []ImportPeriod `json:"periods"`
			Events  []ImportEvent  `json:"events"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImportJSON, err)
		}
		return doc.Periods, doc.Events, nil
	}

	if data, ok := probe["data"]; ok {
		var items []thirdPartyItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImportJSON, err)
		}
		return nil, s.thirdPartyEvents(items), nil
	}

	return nil, nil, ErrUnsupportedImportJSON
}

// thirdPartyEvents maps foreign "period" items to menstruating daily logs,
// taking the flow from value.option and falling back to medium.
func (s *ImportService) thirdPartyEvents(items []thirdPartyItem) []ImportEvent {
	events := make([]ImportEvent, 0, len(items))
	for _, item := range items {
		if !strings.EqualFold(item.Type, "period") {
			continue
		}
		flow := item.Value.Option
		if !history.FlowLevel(flow).Valid() {
			flow = string(history.DefaultFlow)
		}
		events = append(events, ImportEvent{
			Day:          item.Date,
			Menstruating: true,
			Flow:         flow,
			Symptoms:     []string{},
		})
	}
	return events
}

// normalize validates raw items into domain records, skipping broken ones.
// Imported logs get created_at = day 12:00 UTC plus a per-day counter so
// repeated imports order deterministically.
func (s *ImportService) normalize(rawPeriods []ImportPeriod, rawEvents []ImportEvent) ([]*history.Period, []*history.DailyLog) {
	periods := make([]*history.Period, 0, len(rawPeriods))
	for _, rp := range rawPeriods {
		start, err := cycle.ParseDate(rp.Start)
		if err != nil {
			s.logger.WithError(err).WithField("start", rp.Start).Warn("Skipping invalid period entry")
			continue
		}
		p := &history.Period{Start: cycle.DateOf(start)}
		if rp.End != "" {
			end, err := cycle.ParseDate(rp.End)
			if err != nil {
				s.logger.WithError(err).WithField("end", rp.End).Warn("Skipping invalid period entry")
				continue
			}
			endDay := cycle.DateOf(end)
			if endDay.Before(p.Start) {
				s.logger.WithFields(logrus.Fields{"start": rp.Start, "end": rp.End}).Warn("Skipping period ending before it starts")
				continue
			}
			p.End = sql.NullTime{Time: endDay, Valid: true}
		}
		periods = append(periods, p)
	}

	logs := make([]*history.DailyLog, 0, len(rawEvents))
	perDay := make(map[string]int)
	for _, re := range rawEvents {
		day, err := cycle.ParseDate(re.Day)
		if err != nil {
			s.logger.WithError(err).WithField("day", re.Day).Warn("Skipping invalid event entry")
			continue
		}
		dayStart := cycle.DateOf(day)

		flow := history.FlowLevel(re.Flow)
		if !flow.Valid() {
			flow = history.DefaultFlow
		}
		symptoms := re.Symptoms
		if symptoms == nil {
			symptoms = []string{}
		}

		key := cycle.FormatDate(dayStart)
		idx := perDay[key]
		perDay[key] = idx + 1

		logs = append(logs, &history.DailyLog{
			ID:           uuid.New(),
			Day:          dayStart,
			Menstruating: re.Menstruating,
			Flow:         flow,
			Symptoms:     symptoms,
			CreatedAt:    dayStart.Add(12*time.Hour + time.Duration(idx)*time.Second),
		})
	}
	return periods, logs
}

// Document renders the current history in the native export shape.
func (s *ImportService) Document(ctx context.Context) (*HistoryDocument, error) {
	periods, err := s.historyRepo.ListPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded periods: %w", err)
	}
	logs, err := s.historyRepo.ListLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily logs: %w", err)
	}

	doc := &HistoryDocument{
		Periods: make([]PeriodRecord, 0, len(periods)),
		Events:  make([]EventRecord, 0, len(logs)),
	}
	for _, p := range periods {
		rec := PeriodRecord{Start: cycle.FormatDate(p.Start)}
		if p.End.Valid {
			end := cycle.FormatDate(p.End.Time)
			rec.End = &end
		}
		doc.Periods = append(doc.Periods, rec)
	}
	for _, l := range logs {
		doc.Events = append(doc.Events, EventRecord{
			Day:          cycle.FormatDate(l.Day),
			Menstruating: l.Menstruating,
			Flow:         string(l.Flow),
			Symptoms:     l.Symptoms,
			CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return doc, nil
}

// Export writes the native history document to the given file atomically
// and returns the resolved path.
func (s *ImportService) Export(ctx context.Context, file string) (string, error) {
	if file == "" {
		return "", ErrMissingExportFile
	}
	doc, err := s.Document(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode history document: %w", err)
	}

	path := s.resolvePath(file)
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to create pending export file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			s.logger.WithError(err).Debug("Cleanup of pending export file")
		}
	}()
	if _, err := pending.Write(data); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("failed to replace export file: %w", err)
	}

	s.logger.WithField("path", path).Info("History exported")
	return path, nil
}

func (s *ImportService) resolvePath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.dataDir, file)
}
