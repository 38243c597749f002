package presenters

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/glizzus/sound-cipher/internal/measure"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/repository"
)

const noArtefactsFound = "No artefacts found.\n"

const timeLayout = "2006-01-02 15:04:05"

// WriteArtefactTable renders artefacts as an aligned table.
func WriteArtefactTable(w io.Writer, artefacts []repository.Artefact) error {
	if len(artefacts) == 0 {
		_, err := io.WriteString(w, noArtefactsFound)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFRAME BITS\tBLOCK\tCOEFF\tALPHA\tCREATED\tERROR")
	for _, a := range artefacts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%g\t%s\t%s\n",
			a.ID,
			a.Status,
			a.FrameBits,
			a.BlockSize,
			a.DCTCoeff,
			a.Alpha,
			a.CreatedAt.UTC().Format(timeLayout),
			a.Error,
		)
	}
	return tw.Flush()
}

// WriteCapacity renders what a cover can hold. fit may be nil when no key
// was given.
func WriteCapacity(w io.Writer, report measure.CapacityReport, blockSize int, fit *pipeline.CapacityReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "samples:\t%d\n", report.Samples)
	fmt.Fprintf(tw, "blocks:\t%d of %d samples\n", report.Blocks, blockSize)
	fmt.Fprintf(tw, "capacity:\t%d bits\n", report.Bits)
	fmt.Fprintf(tw, "max payload:\t%d bytes\n", report.PayloadBytes)
	if fit != nil {
		fmt.Fprintf(tw, "ciphertext:\t%d bytes, frame %d bits\n", fit.CiphertextSize, fit.RequiredBits)
		fmt.Fprintf(tw, "fits:\t%t\n", fit.Fits())
	}
	return tw.Flush()
}
