// Package asset loads token images, addresses them by the MD5 of their PNG
// re-encoding, scales thumbnails, and picks a portrait for a creature by
// fuzzy file name match against one or more image library directories.
package asset
