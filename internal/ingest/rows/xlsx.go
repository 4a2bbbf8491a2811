package rows

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yungbote/datavault-backend/internal/types"
)

// fromXLSX reads the first sheet; the first row is the header.
func fromXLSX(path string) (Set, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("open xlsx %s: %w", path, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Set{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Set{}, types.Tag(types.KindParse, fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	return fromRecords(records), nil
}
