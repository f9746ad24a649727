// Package pkg holds the zinefold libraries.
//
// Data flows through them in one direction:
//
//	[config]   job file → resolved paper and image list
//	[raster]   image files → pixel sizes (via ImageMagick when Go cannot decode)
//	[impose]   spreads → pages → layout → plan (pure, no I/O)
//	[render]   plan → compositor commands, run concurrently
//	[pdfout]   sheet images → one duplex PDF
//	[publish]  written files → S3
//
// [pipeline] strings these together with a measurement [cache] and the
// [observability] hooks. The zinefold command in cmd/zinefold is a thin
// cobra front end over [pipeline.Runner].
package pkg
