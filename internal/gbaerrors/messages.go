package gbaerrors

var messages = map[Errno]string{
	ROMTooLarge:         "ROM image is too large (%d bytes, max 32MiB)",
	ROMEmpty:            "ROM image is empty",
	BIOSWrongSize:       "BIOS image is the wrong size (%d bytes, want 16384)",
	BIOSFileCannotOpen:  "cannot open BIOS file (%s)",
	UndefinedInstruction: "undefined instruction (%#08x) at (%#08x)",
	UnimplementedSWI:    "unimplemented BIOS call (swi %#02x)",

	SaveStateVersionMismatch: "save state version mismatch (got %d, want %d)",
	SaveStateCorrupt:         "save state is corrupt (%s)",

	FileCannotOpen:  "cannot open file (%s)",
	FileWriteError:  "error writing file (%s)",
}
