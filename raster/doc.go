/*
	Package raster provides types, constants, and functions that have no other dependencies
	and can be used by all packages within rasterchunk.  This includes the pixel geometry
	primitives (offsets, sizes, windows, affine transforms), logging, and the errors shared
	by the chunking, alignment, and storage layers.
*/
package raster
