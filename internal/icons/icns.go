package icons

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// icnsEntry is one icon to embed in an ICNS container: its point size,
// scale, and PNG-encoded pixel data.
type icnsEntry struct {
	Size  int
	Scale int
	PNG   []byte
}

// icnsTypes maps (point size, scale) to the ICNS OSType that holds
// PNG-encoded data at that resolution.
var icnsTypes = map[[2]int]string{
	{16, 1}:  "icp4",
	{32, 1}:  "icp5",
	{64, 1}:  "icp6",
	{128, 1}: "ic07",
	{256, 1}: "ic08",
	{512, 1}: "ic09",
	{16, 2}:  "ic11",
	{32, 2}:  "ic12",
	{128, 2}: "ic13",
	{256, 2}: "ic14",
	{512, 2}: "ic10",
}

// writeICNS assembles an ICNS container: the "icns" magic, a big-endian
// total length, then one (OSType, length, data) element per entry.
// Entries without a defined OSType are skipped.
func writeICNS(path string, entries []icnsEntry) error {
	var elements []byte
	for _, entry := range entries {
		osType, ok := icnsTypes[[2]int{entry.Size, entry.Scale}]
		if !ok {
			continue
		}
		header := make([]byte, 8)
		copy(header[:4], osType)
		binary.BigEndian.PutUint32(header[4:], uint32(8+len(entry.PNG)))
		elements = append(elements, header...)
		elements = append(elements, entry.PNG...)
	}
	if len(elements) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no usable icon resolutions for icns container")
	}
	file := make([]byte, 8, 8+len(elements))
	copy(file[:4], "icns")
	binary.BigEndian.PutUint32(file[4:], uint32(8+len(elements)))
	file = append(file, elements...)
	if err := os.WriteFile(path, file, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write icns file: %s", path)).
			WithCause(err)
	}
	return nil
}
