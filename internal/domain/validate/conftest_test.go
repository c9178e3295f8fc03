package validate

import "github.com/kailas-cloud/docman/internal/domain/entity"

func testSchema() entity.Schema {
	return entity.DefaultSchema()
}
