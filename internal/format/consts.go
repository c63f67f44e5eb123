package format

// Base block (REGF header) layout. The base block occupies the first 4096
// bytes of the hive file.
const (
	BaseBlockSize       = 4096
	BaseBlockMagic      = "regf"
	BaseBlockMagicOff   = 0
	BaseBlockSeq1Off    = 4
	BaseBlockSeq2Off    = 8
	BaseBlockTimestamp  = 12
	BaseBlockMajorVer   = 20
	BaseBlockMinorVer   = 24
	BaseBlockFileType   = 28
	BaseBlockFileFormat = 32
	BaseBlockRootKeyOff = 36 // relative to the first hbin, i.e. +0x1000
	BaseBlockHiveBinSz  = 40
	BaseBlockCheckSum   = 508
)

// HBIN (hive bin) header layout. Bins are 4096-byte aligned.
const (
	HBINHeaderSize = 32
	HBINMagic      = "hbin"
	HBINMagicOff   = 0
	HBINRelOffOff  = 4 // offset of this bin relative to the first bin
	HBINSizeOff    = 8
	HBINAlignment  = 0x1000
)

// Cell header.
const (
	CellSizeFieldSize = 4
	CellSigSize       = 2
)

// nk (named key) cell layout.
const (
	NKMinSize        = 0x50
	NKSignature      = "nk"
	NKFlagsOff       = 2
	NKTimestampOff   = 4
	NKSpareOff       = 12
	NKParentOff      = 16
	NKSubkeyCountOff = 20
	NKSubkeyCountVOf = 24 // volatile subkey count, ignored (read-only view)
	NKSubkeyListOff  = 28
	NKSubkeyListVOf  = 32 // volatile subkey list offset, ignored
	NKValueCountOff  = 36
	NKValueListOff   = 40
	NKSecurityOff    = 44
	NKClassNameOff   = 48
	NKMaxSubkeyNmOff = 52
	NKMaxClassNmOff  = 56
	NKMaxValueNmOff  = 60
	NKMaxValueDtOff  = 64
	NKUnknown2Off    = 68
	NKNameLengthOff  = 72
	NKClassLengthOff = 74
	NKNameOff        = 76

	NKFlagCompressedName = 0x0020
	NKFlagIsRoot         = 0x0004
)

// vk (value key) cell layout.
const (
	VKMinSize       = 0x14
	VKSignature     = "vk"
	VKNameLengthOff = 2
	VKDataSizeOff   = 4
	VKDataOffsetOff = 8
	VKDataTypeOff   = 12
	VKFlagsOff      = 16
	VKSpareOff      = 18
	VKNameOff       = 20

	VKFlagCompressedName = 0x0001

	// When the high bit of the data-size field is set, the value's data is
	// stored inline in the data-offset field rather than in a separate cell;
	// the low 31 bits of the data-size field always give the data length.
	VKDataSizeInlineBit = 0x80000000
	VKDataSizeMask      = 0x7FFFFFFF
	VKInlineMaxLen      = 4
)

// sk (security key) cell layout.
const (
	SKMinSize      = 0x14
	SKSignature    = "sk"
	SKFlinkOff     = 4
	SKBlinkOff     = 8
	SKRefCountOff  = 12
	SKDescSizeOff  = 16
	SKDescOff      = 20
)

// Subkey list cell signatures and layouts.
const (
	LFSignature = "lf"
	LHSignature = "lh"
	LISignature = "li"
	RISignature = "ri"

	ListCountOff = 2
	ListElemsOff = 4

	LFLHElemSize = 8 // offset(4) + hash(4)
	LIElemSize   = 4 // offset(4) only
	RIElemSize   = 4 // offset(4) of a nested lf/lh/li list cell
)

// Value list cell (vl). Unlike lf/lh/li/ri, a value list has no signature of
// its own: it is a bare array of 4-byte value-key cell offsets, its count
// taken from the owning nk's value count field.
const (
	ValueListElemSize = 4
)

// db (big data) cell layout: a small directory of offsets to fixed-size data
// segments, used when a value's data exceeds DBChunkSize.
const (
	DBSignature     = "db"
	DBSegCountOff   = 2
	DBSegListOffOff = 4
	DBChunkSize     = 16344
)

// REG_* value type codes (subset relevant to read-only decode).
const (
	RegNone                     = 0
	RegSZ                       = 1
	RegExpandSZ                 = 2
	RegBinary                   = 3
	RegDWord                    = 4
	RegDWordBigEndian           = 5
	RegLink                     = 6
	RegMultiSZ                  = 7
	RegResourceList             = 8
	RegFullResourceDescriptor   = 9
	RegResourceRequirementsList = 10
	RegQWord                    = 11
)

// Sentinel "no offset" value used throughout REGF to mean "absent" (e.g. a
// key with no class name, no security descriptor, no subkeys).
const NoOffset int64 = -1

// MaxRecursionDepth bounds subkeys-index recursion (ri -> lf/lh/li chains)
// so a corrupted or cyclic offset graph cannot recurse indefinitely. Not
// part of the externally observable contract; purely a safety backstop.
const MaxRecursionDepth = 512

// MaxValueCacheEntries bounds the number of decoded values a ValueList will
// keep resident at once.
const MaxValueCacheEntries = 64
