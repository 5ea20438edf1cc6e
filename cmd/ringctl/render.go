package main

import (
	"bytes"

	"github.com/danmuck/ringlink/internal/portman"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(buf *bytes.Buffer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(buf)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

func renderStatus(st ring.Status) []byte {
	var buf bytes.Buffer

	summary := newTable(&buf)
	summary.AppendHeader(table.Row{"Ring", "Data Bytes", "Slots", "Producer PID", "Put"})
	producer := any(st.ProducerPID)
	if st.ProducerPID == 0 {
		producer = "-"
	}
	summary.AppendRow(table.Row{st.Path, st.DataBytes, st.MaxConsumers, producer, st.Put})
	summary.Render()

	if len(st.Consumers) == 0 {
		buf.WriteString("\nno consumers attached\n")
		return buf.Bytes()
	}
	buf.WriteString("\n")
	slots := newTable(&buf)
	slots.AppendHeader(table.Row{"Slot", "PID", "Get", "Backlog"})
	for _, c := range st.Consumers {
		slots.AppendRow(table.Row{c.Index, c.PID, c.Get, c.Backlog})
	}
	slots.Render()
	return buf.Bytes()
}

func renderServices(services []portman.Service) []byte {
	var buf bytes.Buffer
	t := newTable(&buf)
	t.AppendHeader(table.Row{"Port", "Service", "User"})
	for _, s := range services {
		t.AppendRow(table.Row{s.Port, s.Name, s.User})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, AutoMerge: true}})
	t.Render()
	return buf.Bytes()
}
