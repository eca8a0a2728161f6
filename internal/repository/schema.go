package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	TableRequests          = "requests"
	TableDocuments         = "documents"
	TableExtractionRuns    = "extraction_runs"
	TableCitationChunks    = "citation_chunks"
	TableGroundedEvidence  = "grounded_evidence"
	TableEvidenceCitations = "evidence_citations"
)

const textSize = 2147483647

var (
	// RequestsColumns holds the columns for the "requests" table.
	RequestsColumns = []*schema.Column{
		{Name: "request_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeString, Size: 64},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	RequestsTable = &schema.Table{
		Name:       TableRequests,
		Columns:    RequestsColumns,
		PrimaryKey: []*schema.Column{RequestsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "requests_status", Columns: []*schema.Column{RequestsColumns[1]}},
		},
	}

	// DocumentsColumns holds the columns for the "documents" table.
	DocumentsColumns = []*schema.Column{
		{Name: "doc_id", Type: field.TypeUUID},
		{Name: "request_id", Type: field.TypeUUID},
		{Name: "filename", Type: field.TypeString},
		{Name: "content_type", Type: field.TypeString, Size: 128},
		{Name: "storage_uri", Type: field.TypeString, Size: textSize},
		{Name: "content_hash", Type: field.TypeString, Size: 64},
		{Name: "size_bytes", Type: field.TypeInt64},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	DocumentsTable = &schema.Table{
		Name:       TableDocuments,
		Columns:    DocumentsColumns,
		PrimaryKey: []*schema.Column{DocumentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "documents_requests_documents",
				Columns:    []*schema.Column{DocumentsColumns[1]},
				RefColumns: []*schema.Column{RequestsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "documents_request_id_is_active", Columns: []*schema.Column{DocumentsColumns[1], DocumentsColumns[7]}},
		},
	}

	// ExtractionRunsColumns holds the columns for the "extraction_runs" table.
	ExtractionRunsColumns = []*schema.Column{
		{Name: "run_id", Type: field.TypeUUID},
		{Name: "request_id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeString, Size: 32},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "manifest_uri", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "manifest_sha256", Type: field.TypeString, Size: 64, Nullable: true},
	}
	ExtractionRunsTable = &schema.Table{
		Name:       TableExtractionRuns,
		Columns:    ExtractionRunsColumns,
		PrimaryKey: []*schema.Column{ExtractionRunsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "extraction_runs_requests_runs",
				Columns:    []*schema.Column{ExtractionRunsColumns[1]},
				RefColumns: []*schema.Column{RequestsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "extraction_runs_request_id_started_at", Columns: []*schema.Column{ExtractionRunsColumns[1], ExtractionRunsColumns[3]}},
		},
	}

	// CitationChunksColumns holds the columns for the "citation_chunks" table.
	CitationChunksColumns = []*schema.Column{
		{Name: "chunk_id", Type: field.TypeString, Size: 64},
		{Name: "doc_id", Type: field.TypeUUID},
		{Name: "run_id", Type: field.TypeUUID},
		{Name: "page_num", Type: field.TypeInt},
		{Name: "span_start", Type: field.TypeInt},
		{Name: "span_end", Type: field.TypeInt},
		{Name: "snippet_text", Type: field.TypeString, Size: textSize},
		{Name: "full_text", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
	}
	CitationChunksTable = &schema.Table{
		Name:       TableCitationChunks,
		Columns:    CitationChunksColumns,
		PrimaryKey: []*schema.Column{CitationChunksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "citation_chunks_documents_chunks",
				Columns:    []*schema.Column{CitationChunksColumns[1]},
				RefColumns: []*schema.Column{DocumentsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "citation_chunks_extraction_runs_chunks",
				Columns:    []*schema.Column{CitationChunksColumns[2]},
				RefColumns: []*schema.Column{ExtractionRunsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "citation_chunks_run_id_doc_id_page_num", Columns: []*schema.Column{CitationChunksColumns[2], CitationChunksColumns[1], CitationChunksColumns[3]}},
		},
	}

	// GroundedEvidenceColumns holds the columns for the "grounded_evidence" table.
	GroundedEvidenceColumns = []*schema.Column{
		{Name: "evidence_id", Type: field.TypeUUID},
		{Name: "request_id", Type: field.TypeUUID},
		{Name: "run_id", Type: field.TypeUUID},
		{Name: "fact_type", Type: field.TypeString, Size: 64},
		{Name: "fact_key", Type: field.TypeString},
		{Name: "fact_value", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "fact_json", Type: field.TypeJSON, Nullable: true},
		{Name: "unknown", Type: field.TypeBool, Default: false},
		{Name: "notes", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	GroundedEvidenceTable = &schema.Table{
		Name:       TableGroundedEvidence,
		Columns:    GroundedEvidenceColumns,
		PrimaryKey: []*schema.Column{GroundedEvidenceColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "grounded_evidence_requests_evidence",
				Columns:    []*schema.Column{GroundedEvidenceColumns[1]},
				RefColumns: []*schema.Column{RequestsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "grounded_evidence_extraction_runs_evidence",
				Columns:    []*schema.Column{GroundedEvidenceColumns[2]},
				RefColumns: []*schema.Column{ExtractionRunsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{Name: "grounded_evidence_run_id_fact_type_fact_key", Columns: []*schema.Column{GroundedEvidenceColumns[2], GroundedEvidenceColumns[3], GroundedEvidenceColumns[4]}},
		},
	}

	// EvidenceCitationsColumns holds the columns for the "evidence_citations" table.
	EvidenceCitationsColumns = []*schema.Column{
		{Name: "evidence_id", Type: field.TypeUUID},
		{Name: "chunk_id", Type: field.TypeString, Size: 64},
	}
	EvidenceCitationsTable = &schema.Table{
		Name:       TableEvidenceCitations,
		Columns:    EvidenceCitationsColumns,
		PrimaryKey: []*schema.Column{EvidenceCitationsColumns[0], EvidenceCitationsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "evidence_citations_grounded_evidence_citations",
				Columns:    []*schema.Column{EvidenceCitationsColumns[0]},
				RefColumns: []*schema.Column{GroundedEvidenceColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "evidence_citations_citation_chunks_citations",
				Columns:    []*schema.Column{EvidenceCitationsColumns[1]},
				RefColumns: []*schema.Column{CitationChunksColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		RequestsTable,
		DocumentsTable,
		ExtractionRunsTable,
		CitationChunksTable,
		GroundedEvidenceTable,
		EvidenceCitationsTable,
	}
)

func init() {
	DocumentsTable.ForeignKeys[0].RefTable = RequestsTable
	ExtractionRunsTable.ForeignKeys[0].RefTable = RequestsTable
	CitationChunksTable.ForeignKeys[0].RefTable = DocumentsTable
	CitationChunksTable.ForeignKeys[1].RefTable = ExtractionRunsTable
	GroundedEvidenceTable.ForeignKeys[0].RefTable = RequestsTable
	GroundedEvidenceTable.ForeignKeys[1].RefTable = ExtractionRunsTable
	EvidenceCitationsTable.ForeignKeys[0].RefTable = GroundedEvidenceTable
	EvidenceCitationsTable.ForeignKeys[1].RefTable = CitationChunksTable
}

// Migrate creates or updates all tables. Existing columns and data are kept.
func Migrate(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) error {
	logger.Info("running schema migration", "dialect", drv.Dialect(), "tables", len(Tables))
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema migration complete")
	return nil
}
