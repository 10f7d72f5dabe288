package config

import (
	"encoding/binary"

	"hypercore/kernel"
	"hypercore/kernel/mm"
)

// The loader hands the hypervisor its system configuration as a packed
// little-endian blob: a fixed header followed by 8-byte aligned tags, closed
// by an end tag. Tags the decoder does not know are skipped so older images
// keep working with newer loaders.

type tagType uint32

const (
	tagSectionEnd tagType = iota
	tagHypervisorMemory
	tagDebugConsole
	tagROBuffer
	tagRootCell
)

const (
	// blobHeaderSize covers totalSize and the system flag word.
	blobHeaderSize = 8

	// tagHeaderSize covers the tag type and its payload size. Each tag
	// starts at an 8-byte aligned offset.
	tagHeaderSize = 8

	// memRegionSize is the encoded size of one memory region: physical
	// start, virtual start, size and the flag word plus padding.
	memRegionSize = 32
)

var (
	errBlobTooShort  = &kernel.Error{Module: "config", Message: "configuration blob is shorter than its header", Code: kernel.CodeInvalidParam}
	errBlobSizeField = &kernel.Error{Module: "config", Message: "configuration blob size field exceeds the blob", Code: kernel.CodeInvalidParam}
	errBlobTruncated = &kernel.Error{Module: "config", Message: "configuration blob tag is truncated", Code: kernel.CodeInvalidParam}
	errBlobNoEnd     = &kernel.Error{Module: "config", Message: "configuration blob misses the end tag", Code: kernel.CodeInvalidParam}
	errBlobOffset    = &kernel.Error{Module: "config", Message: "configuration offset lies outside the loaded image", Code: kernel.CodeRange}
)

// DecodeSystem parses the loader-placed configuration blob.
func DecodeSystem(blob []byte) (*SystemConfig, *kernel.Error) {
	if len(blob) < blobHeaderSize {
		return nil, errBlobTooShort
	}

	totalSize := uint64(binary.LittleEndian.Uint32(blob[0:4]))
	if totalSize > uint64(len(blob)) || totalSize < blobHeaderSize {
		return nil, errBlobSizeField
	}

	cfg := &SystemConfig{
		Flags: SysFlag(binary.LittleEndian.Uint32(blob[4:8])),
	}

	var (
		off    = uint64(blobHeaderSize)
		sawEnd bool
	)
	for off+tagHeaderSize <= totalSize {
		tag := tagType(binary.LittleEndian.Uint32(blob[off : off+4]))
		size := uint64(binary.LittleEndian.Uint32(blob[off+4 : off+8]))

		if tag == tagSectionEnd {
			sawEnd = true
			break
		}

		payload := off + tagHeaderSize
		if payload+size > totalSize {
			return nil, errBlobTruncated
		}
		body := blob[payload : payload+size]

		switch tag {
		case tagHypervisorMemory:
			region, err := decodeRegion(body)
			if err != nil {
				return nil, err
			}
			cfg.HypervisorMemory = region

		case tagDebugConsole:
			if len(body) < 24 {
				return nil, errBlobTruncated
			}
			cfg.DebugConsole = ConsoleDescriptor{
				Address: mm.PhysAddr(binary.LittleEndian.Uint64(body[0:8])),
				Size:    binary.LittleEndian.Uint64(body[8:16]),
				Flags:   ConFlag(binary.LittleEndian.Uint32(body[16:20])),
			}

		case tagROBuffer:
			region, err := decodeRegion(body)
			if err != nil {
				return nil, err
			}
			cfg.ROBuffer = region

		case tagRootCell:
			cell, err := decodeCell(body)
			if err != nil {
				return nil, err
			}
			cfg.RootCell = cell
		}

		// Skip to the next 8-byte aligned tag; unknown tags fall
		// through here untouched.
		off = (payload + size + 7) &^ 7
	}

	if !sawEnd {
		return nil, errBlobNoEnd
	}

	return cfg, nil
}

// BlobLocator returns a locator resolving the configuration inside the
// loaded image, for use as the boot protocol's locate hook.
func BlobLocator(image []byte) LocateFn {
	return func(offset uint64) (*SystemConfig, *kernel.Error) {
		if offset >= uint64(len(image)) {
			return nil, errBlobOffset
		}
		return DecodeSystem(image[offset:])
	}
}

func decodeRegion(body []byte) (mm.MemRegion, *kernel.Error) {
	if len(body) < memRegionSize {
		return mm.MemRegion{}, errBlobTruncated
	}

	return mm.MemRegion{
		PhysStart: mm.PhysAddr(binary.LittleEndian.Uint64(body[0:8])),
		VirtStart: mm.VirtAddr(binary.LittleEndian.Uint64(body[8:16])),
		Size:      binary.LittleEndian.Uint64(body[16:24]),
		Flags:     mm.RegionFlag(binary.LittleEndian.Uint32(body[24:28])),
	}, nil
}

// decodeCell parses a cell descriptor: CPU set, name length, region count,
// the name padded to 8 bytes, then the region list.
func decodeCell(body []byte) (CellConfig, *kernel.Error) {
	if len(body) < 16 {
		return CellConfig{}, errBlobTruncated
	}

	var (
		cpuSet     = CPUSet(binary.LittleEndian.Uint64(body[0:8]))
		nameLen    = binary.LittleEndian.Uint32(body[8:12])
		numRegions = binary.LittleEndian.Uint32(body[12:16])
	)

	nameEnd := 16 + uint64(nameLen)
	regionsOff := (nameEnd + 7) &^ 7
	regionsEnd := regionsOff + uint64(numRegions)*memRegionSize
	if regionsEnd > uint64(len(body)) {
		return CellConfig{}, errBlobTruncated
	}

	cell := CellConfig{
		Name:   string(body[16:nameEnd]),
		CPUSet: cpuSet,
	}

	for i := uint64(0); i < uint64(numRegions); i++ {
		region, err := decodeRegion(body[regionsOff+i*memRegionSize:])
		if err != nil {
			return CellConfig{}, err
		}
		cell.MemRegions = append(cell.MemRegions, region)
	}

	return cell, nil
}
