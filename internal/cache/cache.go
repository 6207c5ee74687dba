// Package cache implementa los dos niveles de caché del cliente de mercado:
// un mapa en memoria por clave (vive lo que el proceso) y un archivo por
// clave en disco (sobrevive reinicios, podado por edad al arrancar).
//
// Una entrada vencida se trata como ausente, nunca como valor cero. Los
// fallos de lectura distinguen "no está" (ErrMiss) de "está pero ilegible"
// (ErrCorrupt) para que el caller y los tests puedan afirmar cuál ocurrió.
package cache

import "errors"

var (
	// ErrMiss indica que la clave no existe o su TTL venció.
	ErrMiss = errors.New("cache: miss")

	// ErrCorrupt indica que la entrada existe pero no se pudo decodificar.
	// El cliente lo trata como miss, pero queda logueado aparte.
	ErrCorrupt = errors.New("cache: corrupt entry")
)
