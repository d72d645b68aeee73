// Package windows contains the Windows installer shells: exe (Inno Setup
// compiler) and msi (WiX toolset).
package windows
