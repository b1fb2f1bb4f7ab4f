package docindex

import (
	"context"
	"fmt"

	"github.com/doclens/doclens/internal/db"
)

// EnsureIndex creates the corpus FT index if it does not exist yet.
// Population of the index is owned by the ingestion pipeline; doclens only
// guarantees the query-side definition is present.
func EnsureIndex(ctx context.Context, mgr db.IndexManager, dimensions, hnswM, hnswEFConstruct int) error {
	exists, err := mgr.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     IndexName,
		Prefixes: []string{DocKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldContent, Type: db.IndexFieldText},
			{Name: fieldSourceName, Type: db.IndexFieldTag},
			{Name: fieldSourceType, Type: db.IndexFieldTag},
			{Name: fieldAuthority, Type: db.IndexFieldNumeric},
			{Name: fieldTechnologies, Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "difficulty", Type: db.IndexFieldTag},
			{Name: "content_type", Type: db.IndexFieldTag},
			{Name: fieldUpdatedAt, Type: db.IndexFieldNumeric},
			{
				Name:              "embedding",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnswM,
				VectorEFConstruct: hnswEFConstruct,
			},
		},
	}

	if err := mgr.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}
