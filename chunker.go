package megaupload

// ChunkBoundary is an ordered byte range [Start, End) of the source
// file, per spec §3. Boundaries partition [0, file_size) with no gaps
// or overlap and are emitted in increasing order of Start.
type ChunkBoundary struct {
	Index int
	Start int64
	End   int64
}

// Size returns the byte length of the boundary.
func (b ChunkBoundary) Size() int64 {
	return b.End - b.Start
}

const (
	kib = 1024

	// chunkPlateauSize is the fixed increment used once the growing
	// prefix table is exhausted (spec §4.1: "+1024K indefinitely").
	chunkPlateauSize = 1024 * kib
)

// chunkBoundaryPrefix is MEGA's fixed growing-size schedule, in bytes,
// per spec §4.1:
//
//	0, 128K, 384K, 768K, 1280K, 1920K, 2688K, 3584K, 4608K
//
// grounded on original_source/legacy/legacy/upload/chunking_strategy.py's
// MegaChunkingStrategy.chunk_boundaries, and matching the teacher's
// (missing-but-referenced) getChunkSizes exactly in the boundaries it
// implies.
var chunkBoundaryPrefix = []int64{
	0,
	128 * kib,
	384 * kib,
	768 * kib,
	1280 * kib,
	1920 * kib,
	2688 * kib,
	3584 * kib,
	4608 * kib,
}

// PlanChunks produces the ordered list of chunk boundaries for a file
// of the given size, per spec §4.1. An empty file yields no chunks.
// The last boundary in the returned slice always ends exactly at
// fileSize; no zero-length trailing chunk is ever appended.
func PlanChunks(fileSize int64) []ChunkBoundary {
	if fileSize <= 0 {
		return nil
	}

	cumulative := make([]int64, 0, len(chunkBoundaryPrefix)+8)
	for _, b := range chunkBoundaryPrefix {
		if b >= fileSize {
			break
		}
		cumulative = append(cumulative, b)
	}

	// Extend the plateau past the fixed prefix, 1 MiB at a time, until
	// we've covered fileSize.
	if len(cumulative) == len(chunkBoundaryPrefix) {
		next := chunkBoundaryPrefix[len(chunkBoundaryPrefix)-1] + chunkPlateauSize
		for next < fileSize {
			cumulative = append(cumulative, next)
			next += chunkPlateauSize
		}
	}

	cumulative = append(cumulative, fileSize)

	chunks := make([]ChunkBoundary, 0, len(cumulative)-1)
	for i := 0; i < len(cumulative)-1; i++ {
		chunks = append(chunks, ChunkBoundary{
			Index: i,
			Start: cumulative[i],
			End:   cumulative[i+1],
		})
	}
	return chunks
}
