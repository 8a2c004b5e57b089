package scheduler

// EncodedRow is one persistence-ready row: a flattened gene.
type EncodedRow struct {
	SectionID string
	SubjectID string
	FacultyID string
	RoomID    string
	StartSlot int
	Duration  int
}

// RowEmissionMode controls how lab genes are flattened by Encode.
type RowEmissionMode int

const (
	// RowPerGene emits one row per gene with Duration=blockSize. This is
	// the default per §4.8.
	RowPerGene RowEmissionMode = iota
	// RowPerPeriod emits one row per occupied slot, each with Duration=1,
	// matching a persistence schema that requires one row per period.
	RowPerPeriod
)

// Encode flattens a chromosome into persistence-ready rows in
// deterministic (section, then per-section gene) order.
func Encode(chromosome Chromosome, mode RowEmissionMode) []EncodedRow {
	var rows []EncodedRow
	for _, gene := range chromosome.AllGenes() {
		switch mode {
		case RowPerPeriod:
			for i := 0; i < gene.BlockSize; i++ {
				rows = append(rows, EncodedRow{
					SectionID: gene.SectionID,
					SubjectID: gene.SubjectID,
					FacultyID: gene.FacultyID,
					RoomID:    gene.RoomID,
					StartSlot: gene.StartSlot + i,
					Duration:  1,
				})
			}
		default:
			rows = append(rows, EncodedRow{
				SectionID: gene.SectionID,
				SubjectID: gene.SubjectID,
				FacultyID: gene.FacultyID,
				RoomID:    gene.RoomID,
				StartSlot: gene.StartSlot,
				Duration:  gene.BlockSize,
			})
		}
	}
	return rows
}
