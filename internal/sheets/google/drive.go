package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	drive "google.golang.org/api/drive/v3"

	"budgethub/internal/core"
	"budgethub/internal/log"
	"budgethub/internal/sheets"
)

const (
	appDataFolder  = "appDataFolder"
	documentPrefix = "budget-"
	documentSuffix = ".json"
)

// DriveStore is a sheets.DocumentStore keeping one JSON file per budget in
// the Drive app-data folder.
type DriveStore struct {
	svc    *drive.Service
	retry  RetryPolicy
	logger *slog.Logger
}

var _ sheets.DocumentStore = (*DriveStore)(nil)

func NewDriveStore(svc *drive.Service) *DriveStore {
	return &DriveStore{
		svc:    svc,
		retry:  DefaultRetryPolicy,
		logger: slog.Default().With(log.FieldComponent, log.ComponentDrive),
	}
}

func documentName(id string) string {
	return documentPrefix + id + documentSuffix
}

// escapeQuery escapes a literal for the Drive query language.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func (s *DriveStore) findFile(ctx context.Context, id string) (*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(documentName(id)))
	var list *drive.FileList
	err := s.retry.do(ctx, "drive_find", func() (err error) {
		list, err = s.svc.Files.List().Spaces(appDataFolder).Q(q).Fields("files(id,name)").PageSize(1).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find document %q: %w", id, err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

func (s *DriveStore) download(ctx context.Context, fileID string) (core.Budget, error) {
	var body []byte
	err := s.retry.do(ctx, "drive_download", func() error {
		resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("download %s: %w", fileID, err)
	}
	var b core.Budget
	if err := json.Unmarshal(body, &b); err != nil {
		return core.Budget{}, fmt.Errorf("decode %s: %w", fileID, err)
	}
	return b, nil
}

func (s *DriveStore) LoadBudget(ctx context.Context, id string) (core.Budget, error) {
	f, err := s.findFile(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if f == nil {
		return core.Budget{}, fmt.Errorf("load %q: %w", id, sheets.ErrBudgetNotFound)
	}
	return s.download(ctx, f.Id)
}

func (s *DriveStore) SaveBudget(ctx context.Context, b core.Budget) error {
	if strings.TrimSpace(b.ID) == "" {
		return core.ErrEmptyBudgetID
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode budget %q: %w", b.ID, err)
	}
	existing, err := s.findFile(ctx, b.ID)
	if err != nil {
		return err
	}
	err = s.retry.do(ctx, "drive_save", func() error {
		media := bytes.NewReader(data)
		if existing != nil {
			_, err := s.svc.Files.Update(existing.Id, &drive.File{}).Media(media).Context(ctx).Do()
			return err
		}
		meta := &drive.File{Name: documentName(b.ID), Parents: []string{appDataFolder}, MimeType: "application/json"}
		_, err := s.svc.Files.Create(meta).Media(media).Fields("id").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("save budget %q: %w", b.ID, err)
	}
	s.logger.DebugContext(ctx, "Budget document saved", log.FieldBudgetID, b.ID, "bytes", len(data))
	return nil
}

// ListBudgets downloads every budget document, ordered by id.
func (s *DriveStore) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	q := fmt.Sprintf("name contains '%s' and trashed = false", documentPrefix)
	var files []*drive.File
	call := s.svc.Files.List().Spaces(appDataFolder).Q(q).Fields("nextPageToken, files(id,name)")
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			if strings.HasPrefix(f.Name, documentPrefix) && strings.HasSuffix(f.Name, documentSuffix) {
				files = append(files, f)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]core.Budget, 0, len(files))
	for _, f := range files {
		b, err := s.download(ctx, f.Id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
