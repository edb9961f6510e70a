package model

// ReconciliationProcessLog is the durable copy of one report job's progress.
// Rows are removed once the report is downloaded or the job is evicted.
type ReconciliationProcessLog struct {
	ID           int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	JobID        string `gorm:"size:100;not null;unique_index" json:"job_id"`
	Status       string `gorm:"size:20;not null" json:"status"`
	Percent      int    `gorm:"not null" json:"percent"`
	Rows         int64  `gorm:"not null" json:"rows"`
	Stage        string `gorm:"size:255;not null" json:"stage"`
	Summary      string `gorm:"type:text" json:"summary"`
	ArtifactPath string `gorm:"size:255" json:"artifact_path"`
	InputFiles   string `gorm:"type:text" json:"input_files"`
	CreateTime   int64  `gorm:"not null" json:"create_time"`
	UpdateTime   int64  `gorm:"not null;index" json:"update_time"`
}
