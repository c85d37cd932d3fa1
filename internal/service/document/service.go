package document

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	apperrors "github.com/oculomed/glauco-api/pkg/errors"
	"github.com/oculomed/glauco-api/pkg/logger"
)

const maxFileSize = 20 << 20 // 20 MiB

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".dcm":  true,
}

type Service interface {
	Upload(ctx context.Context, patientID uuid.UUID, file multipart.File, header *multipart.FileHeader, category model.DocumentCategory, description string) (*model.MedicalDocument, error)
	Get(ctx context.Context, id, patientID uuid.UUID) (*model.MedicalDocument, error)
	List(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalDocument, error)
	Delete(ctx context.Context, id, patientID uuid.UUID) error
}

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type service struct {
	repo   repository.DocumentRepository
	cld    *cloudinary.Cloudinary
	folder string
	logger *logger.Logger
}

func NewService(repo repository.DocumentRepository, cfg Config, logger *logger.Logger) (Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "glauco/documents"
	}

	return &service{repo: repo, cld: cld, folder: folder, logger: logger}, nil
}

func (s *service) Upload(ctx context.Context, patientID uuid.UUID, file multipart.File, header *multipart.FileHeader, category model.DocumentCategory, description string) (*model.MedicalDocument, error) {
	if header.Size > maxFileSize {
		return nil, apperrors.BadRequest(fmt.Sprintf("file exceeds maximum size of %d bytes", maxFileSize), nil)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.BadRequest(fmt.Sprintf("unsupported file type %s", ext), nil)
	}
	if category == "" {
		category = model.DocumentCategoryOther
	}

	publicID := fmt.Sprintf("patient_%s/%s", patientID, uuid.New())

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	doc := &model.MedicalDocument{
		PatientID:   patientID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Category:    category,
		URL:         result.SecureURL,
		PublicID:    result.PublicID,
		Description: description,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		// Best effort cleanup so the blob does not leak when the metadata
		// write fails.
		if _, derr := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: result.PublicID}); derr != nil {
			s.logger.Error(derr, "failed to clean up orphaned upload", "public_id", result.PublicID)
		}
		return nil, fmt.Errorf("failed to store document metadata: %w", err)
	}

	return doc, nil
}

func (s *service) Get(ctx context.Context, id, patientID uuid.UUID) (*model.MedicalDocument, error) {
	return s.repo.Get(ctx, id, patientID)
}

func (s *service) List(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalDocument, error) {
	return s.repo.List(ctx, patientID)
}

func (s *service) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	doc, err := s.repo.Get(ctx, id, patientID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, patientID); err != nil {
		return err
	}

	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: doc.PublicID}); err != nil {
		s.logger.Error(err, "failed to remove document from storage", "public_id", doc.PublicID)
	}
	return nil
}
