// Package config defines the configuration properties of a ringmesh node.
package config
