// Package dataset loads the annotations table an Annotate ML export writes,
// together with the photos it references.
//
// An export directory looks like this:
//
//	annotations.csv
//	Photos/IMG_0001.jpg
//	Photos/IMG_0002.jpg
//
// annotations.csv has a path column (relative to the directory) and an
// annotations column holding a JSON list of labelled boxes:
//
//	path,annotations
//	Photos/IMG_0001.jpg,[{"label":"cat","coordinates":{"x":120,"y":80,"width":60,"height":40}}]
//
// Box coordinates are in image pixels with x and y at the box centre.
package dataset
