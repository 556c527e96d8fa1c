// Package receipt renders till receipts.
//
// HTMLRenderer fills an embedded html/template with a committed order.
// ChromePrinter prints that HTML to an 80mm PDF through headless Chrome,
// and an Archive keeps the PDFs on the local filesystem or in an
// S3-compatible bucket.
package receipt
