// Package archive writes token containers (.rptok zip files) and the
// delivery aggregate that bundles many of them with the shared library token.
//
// Container layout:
//
//	content.xml
//	properties.xml
//	assets/<md5>        asset metadata
//	assets/<md5>.png    asset bytes
//	thumbnail           portrait scaled to the small bound
//	thumbnail_large     portrait scaled to the large bound
//
// Assets are keyed by checksum and written once per container no matter how
// many times a bundle references them. Every container is written to a
// temporary file and renamed into place when complete.
package archive
