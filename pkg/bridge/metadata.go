package bridge

import (
	"naparij/internal/models"
	"naparij/pkg/ij"
)

// ExtractMetadata reads the descriptor of img. Extents always come back in
// (x, y, c, z, t) order and the voxel size is read as three independent
// values; dropping z for flat images is left to the caller.
func ExtractMetadata(img ij.Image) (models.ImageDescriptor, error) {
	if img == nil {
		return models.ImageDescriptor{}, ErrInvalidSource
	}
	cal := img.Calibration()
	return models.ImageDescriptor{
		Title: img.ShortTitle(),
		Dims:  img.Dimensions(),
		VoxelSize: models.VoxelSize{
			Z: cal.Z(),
			Y: cal.Y(),
			X: cal.X(),
		},
		Unit:     cal.Unit(),
		BitDepth: models.BitDepth(img.BitDepth()),
	}, nil
}
