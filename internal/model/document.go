package model

import (
	"github.com/google/uuid"
)

// Document types
const (
	DocumentTypeReferral         = "referral"
	DocumentTypeLabResult        = "lab_result"
	DocumentTypeImaging          = "imaging"
	DocumentTypeConsentForm      = "consent_form"
	DocumentTypeInsurance        = "insurance"
	DocumentTypeDischargeSummary = "discharge_summary"
	DocumentTypeOther            = "other"
)

// MaxDocumentSize caps uploads at 25 MiB
const MaxDocumentSize = 25 << 20

// Document is the metadata row for a stored patient file. The file body
// lives in object storage; FileURL holds the storage key, and the API
// hands out presigned URLs on demand.
type Document struct {
	Base
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	UploadedBy   uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	DocumentType string    `json:"document_type" db:"document_type"`
	FileName     string    `json:"file_name" db:"file_name"`
	FileURL      string    `json:"file_url" db:"file_url"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	MimeType     string    `json:"mime_type" db:"mime_type"`
}

// CreateDocumentRequest registers an upload and requests a presigned PUT
type CreateDocumentRequest struct {
	PatientID    string `json:"patient_id" binding:"required,uuid"`
	DocumentType string `json:"document_type" binding:"required,oneof=referral lab_result imaging consent_form insurance discharge_summary other"`
	FileName     string `json:"file_name" binding:"required"`
	FileSize     int64  `json:"file_size" binding:"required,gt=0"`
	MimeType     string `json:"mime_type" binding:"required"`
}

// DocumentUpload pairs the stored metadata with the presigned upload URL
type DocumentUpload struct {
	Document  *Document `json:"document"`
	UploadURL string    `json:"upload_url"`
}

// DocumentFilter represents document list parameters
type DocumentFilter struct {
	PatientID    uuid.UUID `json:"patient_id" form:"patient_id"`
	DocumentType string    `json:"document_type" form:"document_type"`
}
