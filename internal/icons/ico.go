package icons

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// icoEntry is one icon to embed in an ICO container.  The pixel data is
// PNG-encoded, which the ICO directory format allows for every entry.
type icoEntry struct {
	Size int
	PNG  []byte
}

const icoHeaderLen = 6
const icoDirEntryLen = 16

// writeICO assembles an ICO container: a 6-byte ICONDIR header, one
// 16-byte directory entry per image, then the image data blocks.  A
// size of 256 is encoded as a zero width/height byte per the format.
func writeICO(path string, entries []icoEntry) error {
	if len(entries) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no usable icon resolutions for ico container")
	}
	header := make([]byte, icoHeaderLen)
	binary.LittleEndian.PutUint16(header[2:], 1) // image type: icon
	binary.LittleEndian.PutUint16(header[4:], uint16(len(entries)))

	offset := icoHeaderLen + icoDirEntryLen*len(entries)
	var directory []byte
	var data []byte
	for _, entry := range entries {
		dir := make([]byte, icoDirEntryLen)
		dir[0] = sizeByte(entry.Size)
		dir[1] = sizeByte(entry.Size)
		binary.LittleEndian.PutUint16(dir[4:], 1)  // color planes
		binary.LittleEndian.PutUint16(dir[6:], 32) // bits per pixel
		binary.LittleEndian.PutUint32(dir[8:], uint32(len(entry.PNG)))
		binary.LittleEndian.PutUint32(dir[12:], uint32(offset))
		directory = append(directory, dir...)
		data = append(data, entry.PNG...)
		offset += len(entry.PNG)
	}

	file := append(header, directory...)
	file = append(file, data...)
	if err := os.WriteFile(path, file, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write ico file: %s", path)).
			WithCause(err)
	}
	return nil
}

func sizeByte(size int) byte {
	if size >= 256 {
		return 0
	}
	return byte(size)
}
