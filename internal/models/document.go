package models

import "time"

// StudentDocument references an uploaded file (waiver, medical form) in object storage.
type StudentDocument struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Kind        string    `db:"kind" json:"kind"`
	ObjectKey   string    `db:"object_key" json:"-"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
	DownloadURL string    `db:"-" json:"download_url,omitempty"`
}
