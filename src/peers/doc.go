// Package peers maintains the mapping between ring identifiers and the
// network addresses and public keys of known peers. The peer book resolves
// transport targets, and a JSON file store provides the bootstrap seed list.
package peers
