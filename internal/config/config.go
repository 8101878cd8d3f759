// Package config contains the options shared by every command, and loads them from ".miniserve" files.
package config

import (
	"github.com/Oliver-Hanikel/miniserve/archive"
)

// Options are the global options.
//
// Every option can also be given in a ".miniserve" file using its ini-name; see Load.
type Options struct {
	Config string `long:"config" description:"path to the configuration file; default to the first .miniserve found by walking up from the working directory" value-name:"FILE"`

	Debug    bool   `long:"debug" ini-name:"debug" description:"use development logging"`
	LogLevel string `long:"log-level" ini-name:"log-level" description:"log level (debug, info, warn, error); default to info" value-name:"LEVEL"`

	EnableTar   bool `short:"r" long:"enable-tar" ini-name:"enable-tar" description:"enable tar archives"`
	EnableTarGz bool `short:"g" long:"enable-tar-gz" ini-name:"enable-tar-gz" description:"enable gzip-compressed tar archives"`
	EnableZip   bool `short:"z" long:"enable-zip" ini-name:"enable-zip" description:"enable zip archives"`

	Method       archive.Method `short:"m" long:"method" ini-name:"method" choice:"tar_gz" choice:"tar" choice:"zip" description:"archive method; default to the first enabled method"`
	SkipSymlinks bool           `long:"skip-symlinks" ini-name:"skip-symlinks" description:"do not follow symlinks"`
}

// EnabledMethods returns the toggles as archive.EnabledMethods.
func (o *Options) EnabledMethods() archive.EnabledMethods {
	return archive.EnabledMethods{
		Tar:   o.EnableTar,
		TarGz: o.EnableTarGz,
		Zip:   o.EnableZip,
	}
}

// ArchiveMethod returns Method if it was given, or the first enabled method otherwise.
//
// The returned method may not be enabled; callers must check with archive.Method.IsEnabled. If nothing is enabled
// and no method was given, archive.TarGz is returned.
func (o *Options) ArchiveMethod() archive.Method {
	if o.Method != 0 {
		return o.Method
	}

	if methods := o.EnabledMethods().Methods(); len(methods) != 0 {
		return methods[0]
	}

	return archive.TarGz
}
