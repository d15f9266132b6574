package nosql

import (
	"errors"
)

var ErrUnsupportedConversion = errors.New("no conversion to the requested type")
var ErrUnsupportedOperation = errors.New("operation not supported by this database")
var ErrEmptyCollectionName = errors.New("empty collection name supplied")
var ErrEmptyFieldName = errors.New("empty field name supplied")
var ErrEmptyElementName = errors.New("empty element name supplied")
var ErrEmptyEntityName = errors.New("empty entity name supplied")
var ErrNilKey = errors.New("nil key supplied")
var ErrNilEntity = errors.New("nil entity supplied")
var ErrNonUniqueResult = errors.New("query matched more than one entity")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrNilClient = errors.New("client must not be nil")
var ErrEmptyDatabaseName = errors.New("empty database name supplied")
var ErrEmptyBucketName = errors.New("empty bucket name supplied")
