// Package mongo implements list.Store on MongoDB. Build the low-level client
// via features/list/mongo/clients/mongo and pass it to NewAccessor (lists of
// documents such as permissions, notes or files) or NewStringAccessor (lists
// of bare values such as tags).
package mongo
