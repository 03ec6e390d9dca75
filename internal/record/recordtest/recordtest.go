// Package recordtest provides fixtures for tests that need canonical tables.
package recordtest

import (
	"math"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// SampleCSV is a small semicolon-separated extract with the published headers.
const SampleCSV = "Date;Service;Gare de départ;Gare d'arrivée;Durée moyenne du trajet;Nombre de circulations prévues;Nombre de trains annulés;Commentaire annulations;Nombre de trains en retard au départ;Retard moyen des trains en retard au départ;Retard moyen de tous les trains au départ;Commentaire retards au départ;Nombre de trains en retard à l'arrivée;Retard moyen des trains en retard à l'arrivée;Retard moyen de tous les trains à l'arrivée;Commentaire retards à l'arrivée;Nombre trains en retard > 15min;Retard moyen trains en retard > 15 (si liaison concurrencée par vol);Nombre trains en retard > 30min;Nombre trains en retard > 60min;Prct retard pour causes externes;Prct retard pour cause infrastructure;Prct retard pour cause gestion trafic;Prct retard pour cause matériel roulant;Prct retard pour cause gestion en gare et réutilisation de matériel;Prct retard pour cause prise en compte voyageurs (affluence, gestions PSH, correspondances);Source\n" +
	"2024-01;National;PARIS LYON;MARSEILLE ST CHARLES;200;300;10;;40;12,5;3,1;;50;20.5;4.2;;30;35.0;12;4;20;30;10;20;10;10;sncf\n" +
	"2024-01;National;MARSEILLE ST CHARLES;PARIS LYON;205;310;0;;35;11.0;2.9;;45;18.0;3.8;;25;30.0;10;2;25;25;20;10;10;10;sncf\n" +
	"2024-02;National;PARIS LYON;MARSEILLE ST CHARLES;198;280;20;grève;50;15.0;4.0;;60;22.0;5.0;;40;40.0;20;8;30;40;10;10;5;5;sncf\n" +
	"2024-02;International;PARIS LYON;GENEVE;185;;;;;;;;;;;;;;;;;;;;;;sncf\n" +
	"2024-03;National;LILLE;NANTES;75;100;5;;10;8.0;1.0;;12;9.5;1.5;;5;20.0;2;0;40;20;20;10;5;5;sncf\n"

// Rec builds a record with the core volume fields set and the rest missing.
// lateArr < 0 leaves the late arrival count missing.
func Rec(month, service, dep, arr string, planned, canceled, lateArr int64, delay float64) record.Record {
	d, err := time.Parse(record.MonthLayout, month)
	if err != nil {
		panic(err)
	}
	r := record.Record{
		Date:               d,
		Service:            service,
		Departure:          dep,
		Arrival:            arr,
		AvgDurationMin:     record.IntOf(120),
		Planned:            record.IntOf(planned),
		Canceled:           record.IntOf(canceled),
		AvgDelayDepDelayed: math.NaN(),
		AvgDelayDepAll:     math.NaN(),
		AvgDelayArrDelayed: delay,
		AvgDelayArrAll:     math.NaN(),
		AvgDelayOver15:     math.NaN(),
	}
	if lateArr >= 0 {
		r.LateArrCount = record.IntOf(lateArr)
	}
	for _, c := range record.Causes {
		r.Causes[c] = math.NaN()
	}
	r.Derive()
	return r
}

// WithCauses sets the six cause shares in declaration order.
func WithCauses(r record.Record, shares ...float64) record.Record {
	for i := range record.Causes {
		r.Causes[i] = 0
		if i < len(shares) {
			r.Causes[i] = shares[i]
		}
	}
	r.Derive()
	return r
}

// WithSevere sets the three severity bucket counts.
func WithSevere(r record.Record, over15, over30, over60 int64) record.Record {
	r.LateOver15 = record.IntOf(over15)
	r.LateOver30 = record.IntOf(over30)
	r.LateOver60 = record.IntOf(over60)
	r.Derive()
	return r
}

// Table numbers the records and wraps them in a table with every source
// column present.
func Table(recs ...record.Record) *record.Table {
	var present []record.Column
	for _, s := range record.Schema {
		if !s.Derived {
			present = append(present, s.Name)
		}
	}
	for i := range recs {
		recs[i].Row = i
	}
	return record.NewTable(recs, present, nil)
}
