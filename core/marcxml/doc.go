// Package marcxml reads and writes MARC21 records in the MARCXML slim
// schema.
//
// Reader streams record elements out of a document of any size, with or
// without a collection wrapper and with or without a namespace prefix.
// Marshal and Writer produce the same schema, optionally namespaced.
// MARCXML is always Unicode, so no MARC-8 conversion happens here.
package marcxml
